package http

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/entities"
)

func issueBody(userID, bookID uint, copyLabel string) map[string]any {
	return map[string]any{
		"userId":    userID,
		"bookId":    bookID,
		"copyId":    copyLabel,
		"issueDate": time.Now().Format(time.RFC3339),
	}
}

func TestIssuedBooks_Issue(t *testing.T) {
	t.Run("issues an available copy", func(t *testing.T) {
		app := setupTestApp(t)
		user := app.seedUser(t, "alice")
		book, copy := app.seedBookWithCopy(t, "Gatsby", "GATSBY-1")

		w := app.request(t, http.MethodPost, "/api/issuedBooks", issueBody(user.ID, book.ID, "GATSBY-1"))
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			ID      uint   `json:"id"`
			Message string `json:"message"`
		}
		decodeBody(t, w, &resp)
		assert.NotZero(t, resp.ID)
		assert.Equal(t, "Book copy issued successfully", resp.Message)

		var got entities.Copy
		require.NoError(t, app.db.DB.First(&got, copy.ID).Error)
		assert.False(t, got.Available)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		app := setupTestApp(t)
		user := app.seedUser(t, "alice")
		_, _ = app.seedBookWithCopy(t, "Gatsby", "GATSBY-1")

		body := issueBody(user.ID, 1, "GATSBY-1")
		delete(body, "issueDate")

		w := app.request(t, http.MethodPost, "/api/issuedBooks", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "All fields are required")
	})

	t.Run("rejects an unknown copy", func(t *testing.T) {
		app := setupTestApp(t)
		user := app.seedUser(t, "alice")
		book, _ := app.seedBookWithCopy(t, "Gatsby", "GATSBY-1")

		w := app.request(t, http.MethodPost, "/api/issuedBooks", issueBody(user.ID, book.ID, "NO-SUCH"))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("rejects an already issued copy with 409", func(t *testing.T) {
		app := setupTestApp(t)
		user := app.seedUser(t, "alice")
		other := app.seedUser(t, "bob")
		book, _ := app.seedBookWithCopy(t, "Gatsby", "GATSBY-1")

		w := app.request(t, http.MethodPost, "/api/issuedBooks", issueBody(user.ID, book.ID, "GATSBY-1"))
		require.Equal(t, http.StatusCreated, w.Code)

		w = app.request(t, http.MethodPost, "/api/issuedBooks", issueBody(other.ID, book.ID, "GATSBY-1"))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "already issued")
	})
}

func TestIssuedBooks_ListAndGet(t *testing.T) {
	app := setupTestApp(t)
	alice := app.seedUser(t, "alice")
	bob := app.seedUser(t, "bob")
	book, _ := app.seedBookWithCopy(t, "Gatsby", "GATSBY-1")
	_, _ = app.seedBookWithCopy(t, "Mockingbird", "MOCK-1")

	w := app.request(t, http.MethodPost, "/api/issuedBooks", issueBody(alice.ID, book.ID, "GATSBY-1"))
	require.Equal(t, http.StatusCreated, w.Code)
	w = app.request(t, http.MethodPost, "/api/issuedBooks", issueBody(bob.ID, book.ID, "MOCK-1"))
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("lists all loans", func(t *testing.T) {
		w := app.request(t, http.MethodGet, "/api/issuedBooks", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var list []entities.Loan
		decodeBody(t, w, &list)
		assert.Len(t, list, 2)
	})

	t.Run("filters by user", func(t *testing.T) {
		w := app.request(t, http.MethodGet, fmt.Sprintf("/api/issuedBooks?userId=%d", alice.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var list []entities.Loan
		decodeBody(t, w, &list)
		require.Len(t, list, 1)
		assert.Equal(t, alice.ID, list[0].UserID)
	})

	t.Run("rejects a malformed userId filter", func(t *testing.T) {
		w := app.request(t, http.MethodGet, "/api/issuedBooks?userId=7abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a malformed copyId filter", func(t *testing.T) {
		w := app.request(t, http.MethodGet, "/api/issuedBooks?copyId=-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("gets one loan with relations", func(t *testing.T) {
		w := app.request(t, http.MethodGet, "/api/issuedBooks/1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var loan entities.Loan
		decodeBody(t, w, &loan)
		assert.Equal(t, "GATSBY-1", loan.Copy.Label)
		assert.Equal(t, "alice", loan.User.Username)
	})

	t.Run("404 for an unknown loan", func(t *testing.T) {
		w := app.request(t, http.MethodGet, "/api/issuedBooks/999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestIssuedBooks_Update(t *testing.T) {
	t.Run("setting returnDate closes the loan and frees the copy", func(t *testing.T) {
		app := setupTestApp(t)
		user := app.seedUser(t, "alice")
		book, copy := app.seedBookWithCopy(t, "Gatsby", "GATSBY-1")

		w := app.request(t, http.MethodPost, "/api/issuedBooks", issueBody(user.ID, book.ID, "GATSBY-1"))
		require.Equal(t, http.StatusCreated, w.Code)
		var created struct {
			ID uint `json:"id"`
		}
		decodeBody(t, w, &created)

		w = app.request(t, http.MethodPut, fmt.Sprintf("/api/issuedBooks/%d", created.ID), map[string]any{
			"returnDate": time.Now().Format(time.RFC3339),
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Message    string        `json:"message"`
			IssuedBook entities.Loan `json:"issuedBook"`
		}
		decodeBody(t, w, &resp)
		assert.Equal(t, "Issued book updated successfully", resp.Message)
		assert.NotNil(t, resp.IssuedBook.ReturnDate)

		var got entities.Copy
		require.NoError(t, app.db.DB.First(&got, copy.ID).Error)
		assert.True(t, got.Available)
	})

	t.Run("explicit null returnDate reopens the loan", func(t *testing.T) {
		app := setupTestApp(t)
		user := app.seedUser(t, "alice")
		book, copy := app.seedBookWithCopy(t, "Gatsby", "GATSBY-1")

		w := app.request(t, http.MethodPost, "/api/issuedBooks", issueBody(user.ID, book.ID, "GATSBY-1"))
		require.Equal(t, http.StatusCreated, w.Code)
		var created struct {
			ID uint `json:"id"`
		}
		decodeBody(t, w, &created)

		path := fmt.Sprintf("/api/issuedBooks/%d", created.ID)
		w = app.request(t, http.MethodPut, path, map[string]any{
			"returnDate": time.Now().Format(time.RFC3339),
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = app.request(t, http.MethodPut, path, map[string]any{"returnDate": nil})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			IssuedBook entities.Loan `json:"issuedBook"`
		}
		decodeBody(t, w, &resp)
		assert.Nil(t, resp.IssuedBook.ReturnDate)

		var got entities.Copy
		require.NoError(t, app.db.DB.First(&got, copy.ID).Error)
		assert.False(t, got.Available)
	})

	t.Run("absent returnDate leaves loan state untouched", func(t *testing.T) {
		app := setupTestApp(t)
		user := app.seedUser(t, "alice")
		book, copy := app.seedBookWithCopy(t, "Gatsby", "GATSBY-1")

		w := app.request(t, http.MethodPost, "/api/issuedBooks", issueBody(user.ID, book.ID, "GATSBY-1"))
		require.Equal(t, http.StatusCreated, w.Code)
		var created struct {
			ID uint `json:"id"`
		}
		decodeBody(t, w, &created)

		w = app.request(t, http.MethodPut, fmt.Sprintf("/api/issuedBooks/%d", created.ID), map[string]any{
			"dueDate": time.Now().Add(7 * 24 * time.Hour).Format(time.RFC3339),
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			IssuedBook entities.Loan `json:"issuedBook"`
		}
		decodeBody(t, w, &resp)
		assert.Nil(t, resp.IssuedBook.ReturnDate)
		assert.NotNil(t, resp.IssuedBook.DueDate)

		var got entities.Copy
		require.NoError(t, app.db.DB.First(&got, copy.ID).Error)
		assert.False(t, got.Available)
	})

	t.Run("moving the loan to an occupied copy fails with 409", func(t *testing.T) {
		app := setupTestApp(t)
		alice := app.seedUser(t, "alice")
		bob := app.seedUser(t, "bob")
		book, _ := app.seedBookWithCopy(t, "Gatsby", "GATSBY-1")
		_, _ = app.seedBookWithCopy(t, "Mockingbird", "MOCK-1")

		w := app.request(t, http.MethodPost, "/api/issuedBooks", issueBody(alice.ID, book.ID, "GATSBY-1"))
		require.Equal(t, http.StatusCreated, w.Code)
		var created struct {
			ID uint `json:"id"`
		}
		decodeBody(t, w, &created)

		w = app.request(t, http.MethodPost, "/api/issuedBooks", issueBody(bob.ID, book.ID, "MOCK-1"))
		require.Equal(t, http.StatusCreated, w.Code)

		w = app.request(t, http.MethodPut, fmt.Sprintf("/api/issuedBooks/%d", created.ID), map[string]any{
			"copyId": "MOCK-1",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestIssuedBooks_Return(t *testing.T) {
	app := setupTestApp(t)
	user := app.seedUser(t, "alice")
	book, copy := app.seedBookWithCopy(t, "Gatsby", "GATSBY-1")

	w := app.request(t, http.MethodPost, "/api/issuedBooks", issueBody(user.ID, book.ID, "GATSBY-1"))
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID uint `json:"id"`
	}
	decodeBody(t, w, &created)

	path := fmt.Sprintf("/api/issuedBooks/%d/return", created.ID)

	t.Run("returns the copy", func(t *testing.T) {
		w := app.request(t, http.MethodPost, path, map[string]any{
			"returnDate": time.Now().Format(time.RFC3339),
		})
		require.Equal(t, http.StatusOK, w.Code)

		var got entities.Copy
		require.NoError(t, app.db.DB.First(&got, copy.ID).Error)
		assert.True(t, got.Available)
	})

	t.Run("repeat return is harmless", func(t *testing.T) {
		w := app.request(t, http.MethodPost, path, map[string]any{
			"returnDate": time.Now().Format(time.RFC3339),
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("requires a return date", func(t *testing.T) {
		w := app.request(t, http.MethodPost, path, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestIssuedBooks_Delete(t *testing.T) {
	app := setupTestApp(t)
	user := app.seedUser(t, "alice")
	book, copy := app.seedBookWithCopy(t, "Gatsby", "GATSBY-1")

	w := app.request(t, http.MethodPost, "/api/issuedBooks", issueBody(user.ID, book.ID, "GATSBY-1"))
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID uint `json:"id"`
	}
	decodeBody(t, w, &created)

	w = app.request(t, http.MethodDelete, fmt.Sprintf("/api/issuedBooks/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "deleted successfully")

	var got entities.Copy
	require.NoError(t, app.db.DB.First(&got, copy.ID).Error)
	assert.True(t, got.Available)

	w = app.request(t, http.MethodDelete, fmt.Sprintf("/api/issuedBooks/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
