package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	auditsvc "github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/audit"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/entities"
)

// AuditController exposes the audit trail to admins.
type AuditController struct {
	audit *auditsvc.Service
}

// NewAuditController creates a new audit controller.
func NewAuditController(auditService *auditsvc.Service) *AuditController {
	return &AuditController{audit: auditService}
}

// List returns paginated audit events, optionally filtered by ?userId= or
// ?type=.
func (ac *AuditController) List(c *gin.Context) {
	var userID uint
	if raw := c.Query("userId"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid userId")
			return
		}
		userID = uint(parsed)
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var events []entities.AuditEvent
	var total int64
	var err error
	if eventType := c.Query("type"); eventType != "" {
		events, total, err = ac.audit.GetEventsByType(entities.AuditEventType(eventType), limit, offset)
	} else {
		events, total, err = ac.audit.GetEvents(userID, limit, offset)
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch audit events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
