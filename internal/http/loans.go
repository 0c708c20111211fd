package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	auditsvc "github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/audit"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/auth"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/loans"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/issuance"
)

// LoansController handles the issued-books endpoints. All state transitions
// go through the issuance engine; the controller only translates the wire
// format.
type LoansController struct {
	engine *issuance.Engine
	loans  *loans.Repository
	audit  *auditsvc.Service
}

// NewLoansController creates a new loans controller.
func NewLoansController(engine *issuance.Engine, loansRepo *loans.Repository, auditService *auditsvc.Service) *LoansController {
	return &LoansController{
		engine: engine,
		loans:  loansRepo,
		audit:  auditService,
	}
}

type issueRequest struct {
	UserID    uint   `json:"userId"`
	BookID    uint   `json:"bookId"`
	CopyID    string `json:"copyId"` // the copy's catalog label
	IssueDate string `json:"issueDate"`
	DueDate   string `json:"dueDate"`
}

// updateLoanRequest distinguishes an absent returnDate from an explicit
// null: null reopens the loan, absent leaves it untouched.
type updateLoanRequest struct {
	UserID     *uint           `json:"userId"`
	BookID     *uint           `json:"bookId"`
	CopyID     *string         `json:"copyId"`
	IssueDate  *string         `json:"issueDate"`
	DueDate    *string         `json:"dueDate"`
	ReturnDate json.RawMessage `json:"returnDate"`
}

// List returns all loans, optionally filtered by ?userId= or ?copyId=.
func (lc *LoansController) List(c *gin.Context) {
	ctx := c.Request.Context()

	if rawUserID := c.Query("userId"); rawUserID != "" {
		userID, err := strconv.ParseUint(rawUserID, 10, 32)
		if err != nil || userID == 0 {
			respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid userId %q", rawUserID))
			return
		}
		list, err := lc.loans.ListLoansByUser(ctx, uint(userID))
		if err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to fetch issued books")
			return
		}
		c.JSON(http.StatusOK, list)
		return
	}

	// Full borrowing history of one copy
	if rawCopyID := c.Query("copyId"); rawCopyID != "" {
		copyID, err := strconv.ParseUint(rawCopyID, 10, 32)
		if err != nil || copyID == 0 {
			respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid copyId %q", rawCopyID))
			return
		}
		list, err := lc.loans.ListLoansByCopy(ctx, uint(copyID))
		if err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to fetch issued books")
			return
		}
		c.JSON(http.StatusOK, list)
		return
	}

	list, err := lc.loans.ListLoans(ctx)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch issued books")
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get returns one loan with its user, book and copy.
func (lc *LoansController) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	loan, err := lc.loans.GetLoan(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

// Issue lends a copy to a user. The availability gate in the issuance engine
// guarantees at most one open loan per copy, so a race between two clients
// on the same copy yields exactly one 201 and one 409.
func (lc *LoansController) Issue(c *gin.Context) {
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == 0 || req.BookID == 0 || req.CopyID == "" || req.IssueDate == "" {
		respondError(c, http.StatusBadRequest, "All fields are required")
		return
	}

	issueDate, err := parseDate(req.IssueDate)
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid issueDate %q", req.IssueDate))
		return
	}

	engineReq := issuance.IssueRequest{
		UserID:    req.UserID,
		BookID:    req.BookID,
		CopyLabel: req.CopyID,
		IssueDate: issueDate,
	}
	if req.DueDate != "" {
		dueDate, err := parseDate(req.DueDate)
		if err != nil {
			respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid dueDate %q", req.DueDate))
			return
		}
		engineReq.DueDate = &dueDate
	}

	loanID, err := lc.engine.Issue(c.Request.Context(), engineReq)
	lc.audit.LogIssue(req.UserID, req.CopyID, loanID, err)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      loanID,
		"message": "Book copy issued successfully",
	})
}

// Update applies an administrative correction to a loan. Setting returnDate
// closes the loan and frees the copy; an explicit null returnDate reopens
// it, re-running the availability gate.
func (lc *LoansController) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req updateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	patch := issuance.LoanPatch{
		UserID:    req.UserID,
		BookID:    req.BookID,
		CopyLabel: req.CopyID,
	}
	if req.IssueDate != nil {
		issueDate, err := parseDate(*req.IssueDate)
		if err != nil {
			respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid issueDate %q", *req.IssueDate))
			return
		}
		patch.IssueDate = &issueDate
	}
	if req.DueDate != nil {
		dueDate, err := parseDate(*req.DueDate)
		if err != nil {
			respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid dueDate %q", *req.DueDate))
			return
		}
		patch.DueDate = &dueDate
	}
	switch {
	case len(req.ReturnDate) == 0:
		// absent, leave as is
	case bytes.Equal(req.ReturnDate, []byte("null")):
		patch.ClearReturnDate = true
	default:
		var raw string
		if err := json.Unmarshal(req.ReturnDate, &raw); err != nil {
			respondError(c, http.StatusBadRequest, "invalid returnDate")
			return
		}
		returnDate, err := parseDate(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid returnDate %q", raw))
			return
		}
		patch.ReturnDate = &returnDate
	}

	loan, err := lc.engine.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if patch.ReturnDate != nil {
		lc.audit.LogReturn(loan.UserID, loan.ID, nil)
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Issued book updated successfully",
		"issuedBook": loan,
	})
}

// Return closes a loan and frees its copy. Idempotent.
func (lc *LoansController) Return(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		ReturnDate string `json:"returnDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ReturnDate == "" {
		respondError(c, http.StatusBadRequest, "returnDate is required")
		return
	}
	returnDate, err := parseDate(req.ReturnDate)
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid returnDate %q", req.ReturnDate))
		return
	}

	ctx := c.Request.Context()
	err = lc.engine.Return(ctx, id, returnDate)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	loan, lookupErr := lc.loans.GetLoan(ctx, id)
	if lookupErr == nil {
		lc.audit.LogReturn(loan.UserID, loan.ID, nil)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book copy returned successfully"})
}

// Delete hard-deletes a loan record and frees its copy.
func (lc *LoansController) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := lc.engine.Delete(c.Request.Context(), id); err != nil {
		respondDomainError(c, err)
		return
	}

	lc.audit.LogLoanDelete(auth.CurrentUserID(c), id)
	c.JSON(http.StatusOK, gin.H{"message": "Issued book record deleted successfully"})
}
