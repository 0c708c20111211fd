package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	auditsvc "github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/audit"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/auth"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/config"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database"
	auditrepo "github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/audit"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/books"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/copies"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/loans"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/users"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/entities"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/issuance"
)

// testApp is a fully wired API over a throwaway database, with auth disabled.
type testApp struct {
	router *gin.Engine
	db     *database.Database
	books  *books.Repository
	copies *copies.Repository
	loans  *loans.Repository
	users  *users.Repository
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := filepath.Join(t.TempDir(), "api_test.db")
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	booksRepo := books.NewRepository(db.DB)
	copiesRepo := copies.NewRepository(db.DB)
	loansRepo := loans.NewRepository(db.DB)
	usersRepo := users.NewRepository(db.DB)
	auditService := auditsvc.NewService(auditrepo.NewRepository(db.DB))

	authService := auth.NewService(usersRepo, config.Auth{
		Mode:       config.AuthModeNone,
		BcryptCost: bcrypt.MinCost,
	})

	router := NewRouter(RouterConfig{
		DB:          db.DB,
		Engine:      issuance.NewEngine(copiesRepo, loansRepo, 0),
		Books:       booksRepo,
		Copies:      copiesRepo,
		Loans:       loansRepo,
		Users:       usersRepo,
		AuthService: authService,
		Audit:       auditService,
	})

	return &testApp{
		router: router,
		db:     db,
		books:  booksRepo,
		copies: copiesRepo,
		loans:  loansRepo,
		users:  usersRepo,
	}
}

func (a *testApp) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) seedUser(t *testing.T, username string) *entities.User {
	t.Helper()
	user := &entities.User{Name: username, Username: username, Email: username + "@example.com"}
	require.NoError(t, a.db.DB.Create(user).Error)
	return user
}

func (a *testApp) seedBookWithCopy(t *testing.T, title, label string) (*entities.Book, *entities.Copy) {
	t.Helper()
	book := &entities.Book{Title: title, Author: "Author"}
	require.NoError(t, a.db.DB.Create(book).Error)
	copy := &entities.Copy{BookID: book.ID, Label: label, Available: true}
	require.NoError(t, a.db.DB.Create(copy).Error)
	return book, copy
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}
