package entities

import "time"

type AuditEventType string

const (
	AuditEventIssue      AuditEventType = "issue"
	AuditEventReturn     AuditEventType = "return"
	AuditEventLoanDelete AuditEventType = "loan_delete"
	AuditEventOverdue    AuditEventType = "overdue"
	AuditEventAuth       AuditEventType = "auth"
	AuditEventCatalog    AuditEventType = "catalog"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index" json:"user_id"`
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"`      // e.g., "copy_issue", "loan_delete"
	Description string         `gorm:"size:500" json:"description"` // Human-readable summary
	EntityType  string         `gorm:"size:50" json:"entity_type"`  // "loan", "copy", "book", "user"
	EntityID    *uint          `gorm:"index" json:"entity_id,omitempty"`
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
