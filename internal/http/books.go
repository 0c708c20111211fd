package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/books"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/copies"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/entities"
)

// BooksController handles the book catalog endpoints.
type BooksController struct {
	books  *books.Repository
	copies *copies.Repository
}

// NewBooksController creates a new books controller.
func NewBooksController(booksRepo *books.Repository, copiesRepo *copies.Repository) *BooksController {
	return &BooksController{books: booksRepo, copies: copiesRepo}
}

type bookRequest struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	Genre           string `json:"genre"`
	PublicationDate string `json:"publicationDate"`
	Description     string `json:"description"`
	// Copies optionally registers this many labeled copies along with the
	// book, labeled "<bookID>-1" .. "<bookID>-N".
	Copies int `json:"copies"`
}

func (r bookRequest) toEntity() (*entities.Book, error) {
	if r.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if r.Author == "" {
		return nil, fmt.Errorf("author is required")
	}

	book := &entities.Book{
		Title:       r.Title,
		Author:      r.Author,
		Genre:       r.Genre,
		Description: r.Description,
	}
	if r.PublicationDate != "" {
		published, err := parseDate(r.PublicationDate)
		if err != nil {
			return nil, fmt.Errorf("invalid publicationDate %q", r.PublicationDate)
		}
		book.PublicationDate = &published
	}
	return book, nil
}

// List returns the whole catalog.
func (bc *BooksController) List(c *gin.Context) {
	list, err := bc.books.ListBooks(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch books")
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get returns one book with its copies.
func (bc *BooksController) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	book, err := bc.books.GetBook(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// Create registers a new book, optionally with an initial batch of copies.
func (bc *BooksController) Create(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	book, err := req.toEntity()
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	if err := bc.books.CreateBook(ctx, book); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to create book")
		return
	}

	if req.Copies > 0 {
		batch := make([]entities.Copy, 0, req.Copies)
		for i := 1; i <= req.Copies; i++ {
			batch = append(batch, entities.Copy{
				BookID:    book.ID,
				Label:     fmt.Sprintf("%d-%d", book.ID, i),
				Available: true,
			})
		}
		if err := bc.copies.CreateCopies(ctx, batch); err != nil {
			respondError(c, http.StatusInternalServerError, "Book created but copies could not be registered")
			return
		}
		book.Copies = batch
	}

	c.JSON(http.StatusCreated, book)
}

// Update modifies a book's catalog fields.
func (bc *BooksController) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	book, err := bc.books.GetBook(ctx, id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Title != "" {
		book.Title = req.Title
	}
	if req.Author != "" {
		book.Author = req.Author
	}
	if req.Genre != "" {
		book.Genre = req.Genre
	}
	if req.Description != "" {
		book.Description = req.Description
	}
	if req.PublicationDate != "" {
		var published time.Time
		if published, err = parseDate(req.PublicationDate); err != nil {
			respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid publicationDate %q", req.PublicationDate))
			return
		}
		book.PublicationDate = &published
	}

	if err := bc.books.SaveBook(ctx, book); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// Delete removes a book. Books that still have registered copies are
// rejected with 409.
func (bc *BooksController) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := bc.books.DeleteBook(c.Request.Context(), id); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book deleted successfully"})
}
