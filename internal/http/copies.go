package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/books"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/copies"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/entities"
)

// CopiesController handles the copy catalog endpoints.
type CopiesController struct {
	copies *copies.Repository
	books  *books.Repository
}

// NewCopiesController creates a new copies controller.
func NewCopiesController(copiesRepo *copies.Repository, booksRepo *books.Repository) *CopiesController {
	return &CopiesController{copies: copiesRepo, books: booksRepo}
}

type createCopyRequest struct {
	BookID uint   `json:"bookId"`
	Label  string `json:"label"`
	// Count registers this many auto-labeled copies instead of a single
	// explicitly labeled one.
	Count int `json:"count"`
}

// List returns every copy in the catalog.
func (cc *CopiesController) List(c *gin.Context) {
	list, err := cc.copies.ListCopies(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch copies")
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get returns one copy.
func (cc *CopiesController) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	copy, err := cc.copies.GetCopy(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, copy)
}

// ListForBook returns all copies of one book.
func (cc *CopiesController) ListForBook(c *gin.Context) {
	bookID, err := parseIDParam(c, "bookId")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	list, err := cc.copies.ListCopiesForBook(c.Request.Context(), bookID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch copies")
		return
	}
	c.JSON(http.StatusOK, list)
}

// Create registers one labeled copy, or a Count-sized batch of auto-labeled
// copies, for an existing book.
func (cc *CopiesController) Create(c *gin.Context) {
	var req createCopyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.BookID == 0 {
		respondError(c, http.StatusBadRequest, "bookId is required")
		return
	}

	ctx := c.Request.Context()
	if _, err := cc.books.GetBook(ctx, req.BookID); err != nil {
		respondDomainError(c, err)
		return
	}

	if req.Count > 0 {
		existing, err := cc.copies.CountCopiesForBook(ctx, req.BookID)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to register copies")
			return
		}
		batch := make([]entities.Copy, 0, req.Count)
		for i := 1; i <= req.Count; i++ {
			batch = append(batch, entities.Copy{
				BookID:    req.BookID,
				Label:     fmt.Sprintf("%d-%d", req.BookID, existing+int64(i)),
				Available: true,
			})
		}
		if err := cc.copies.CreateCopies(ctx, batch); err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to register copies")
			return
		}
		c.JSON(http.StatusCreated, batch)
		return
	}

	if req.Label == "" {
		respondError(c, http.StatusBadRequest, "label or count is required")
		return
	}

	copy := &entities.Copy{BookID: req.BookID, Label: req.Label, Available: true}
	if err := cc.copies.CreateCopy(ctx, copy); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, copy)
}

// UpdateLabel renames a copy. Copies on loan are immutable and rejected
// with 409.
func (cc *CopiesController) UpdateLabel(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Label string `json:"label"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Label == "" {
		respondError(c, http.StatusBadRequest, "label is required")
		return
	}

	copy, err := cc.copies.UpdateLabel(c.Request.Context(), id, req.Label)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, copy)
}

// Delete removes a copy. Copies on loan are rejected with 409.
func (cc *CopiesController) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := cc.copies.DeleteCopy(c.Request.Context(), id); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Copy deleted successfully"})
}
