package auth

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/config"
)

const sessionUserIDKey = "user_id"

// SessionManager wraps scs with a SQLite-backed store and gin integration.
type SessionManager struct {
	*scs.SessionManager
	db *sql.DB
}

// NewSessionManager creates a session manager persisting sessions in the
// given SQLite database.
func NewSessionManager(dbPath string, cfg config.Auth) (*SessionManager, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(db)
	sm.Lifetime = cfg.SessionLifetime
	if sm.Lifetime == 0 {
		sm.Lifetime = 24 * time.Hour
	}
	sm.Cookie.Name = "library_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = cfg.SecureCookies

	return &SessionManager{SessionManager: sm, db: db}, nil
}

// Close releases the session store's database handle.
func (sm *SessionManager) Close() error {
	return sm.db.Close()
}

// Middleware loads session data before each request and saves it after.
func (sm *SessionManager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		}))
		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// LoginUser rotates the session token and binds it to the user. Token
// renewal on privilege change prevents session fixation.
func (sm *SessionManager) LoginUser(c *gin.Context, userID uint) error {
	if err := sm.RenewToken(c.Request.Context()); err != nil {
		return fmt.Errorf("failed to renew session token: %w", err)
	}
	sm.Put(c.Request.Context(), sessionUserIDKey, int64(userID))
	return nil
}

// LogoutUser destroys the current session.
func (sm *SessionManager) LogoutUser(c *gin.Context) error {
	return sm.Destroy(c.Request.Context())
}

// AuthenticatedUserID returns the user ID bound to the session, if any.
func (sm *SessionManager) AuthenticatedUserID(c *gin.Context) (uint, bool) {
	id := sm.GetInt64(c.Request.Context(), sessionUserIDKey)
	if id <= 0 {
		return 0, false
	}
	return uint(id), true
}
