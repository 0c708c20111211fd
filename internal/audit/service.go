// Package audit records who issued, returned and deleted what, for the
// admin console's activity view.
package audit

import (
	"fmt"
	"log"
	"time"

	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/audit"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	go func() {
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// LogIssue records a copy issue attempt.
func (s *Service) LogIssue(userID uint, copyLabel string, loanID uint, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventIssue,
		Action:      "copy_issue",
		Description: fmt.Sprintf("Issued copy %s", copyLabel),
		EntityType:  "loan",
		Status:      entities.AuditStatusSuccess,
	}
	if loanID > 0 {
		event.EntityID = &loanID
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.Description = fmt.Sprintf("Failed to issue copy %s", copyLabel)
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	s.LogAsync(event)
}

// LogReturn records a copy return.
func (s *Service) LogReturn(userID uint, loanID uint, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventReturn,
		Action:      "copy_return",
		Description: fmt.Sprintf("Returned loan %d", loanID),
		EntityType:  "loan",
		EntityID:    &loanID,
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	s.LogAsync(event)
}

// LogLoanDelete records an administrative hard-delete of a loan record.
func (s *Service) LogLoanDelete(userID uint, loanID uint) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventLoanDelete,
		Action:      "loan_delete",
		Description: fmt.Sprintf("Deleted loan record %d", loanID),
		EntityType:  "loan",
		EntityID:    &loanID,
		Status:      entities.AuditStatusSuccess,
	}
	s.LogAsync(event)
}

// LogOverdue records an overdue-loan notification.
func (s *Service) LogOverdue(loan *entities.Loan) {
	loanID := loan.ID
	event := &entities.AuditEvent{
		UserID:      loan.UserID,
		EventType:   entities.AuditEventOverdue,
		Action:      "overdue_notice",
		Description: fmt.Sprintf("Loan %d on copy %s is overdue", loan.ID, loan.Copy.Label),
		EntityType:  "loan",
		EntityID:    &loanID,
		Status:      entities.AuditStatusSuccess,
	}
	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		Status:    entities.AuditStatusSuccess,
	}
	if !success {
		event.Status = entities.AuditStatusFailed
	}
	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(userID, limit, offset)
}

// GetEventsByType retrieves audit events filtered by type.
func (s *Service) GetEventsByType(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEventsByType(eventType, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
