// Package http wires the REST API: routing, middleware and the controllers
// translating between the wire format and the domain services.
package http

import (
	"gorm.io/gorm"

	"github.com/gin-gonic/gin"

	auditsvc "github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/audit"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/auth"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/books"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/copies"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/loans"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/users"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/entities"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/issuance"
)

// RouterConfig carries everything the router needs to assemble the API.
type RouterConfig struct {
	DB     *gorm.DB
	Engine *issuance.Engine

	Books  *books.Repository
	Copies *copies.Repository
	Loans  *loans.Repository
	Users  *users.Repository

	AuthService *auth.Service
	Sessions    *auth.SessionManager
	Audit       *auditsvc.Service

	// CSRFSecret enables CSRF protection when non-empty. Left empty in tests.
	CSRFSecret    string
	SecureCookies bool
}

// NewRouter assembles the gin engine with all routes and middleware.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), RequestIDMiddleware(), auth.SecurityHeadersMiddleware())

	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}
	if cfg.Sessions != nil {
		router.Use(cfg.Sessions.Middleware())
	}
	if cfg.CSRFSecret != "" {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	health := NewHealthController(cfg.DB)
	router.GET("/ping", health.Ping)
	router.GET("/health", health.Health)

	booksController := NewBooksController(cfg.Books, cfg.Copies)
	copiesController := NewCopiesController(cfg.Copies, cfg.Books)
	usersController := NewUsersController(cfg.Users, cfg.AuthService, cfg.Sessions, cfg.Audit)
	loansController := NewLoansController(cfg.Engine, cfg.Loans, cfg.Audit)
	auditController := NewAuditController(cfg.Audit)

	api := router.Group("/api")
	api.Use(auth.RequireAuth(cfg.AuthService, cfg.Sessions))
	{
		api.POST("/users/login", usersController.Login)
		api.POST("/users/logout", usersController.Logout)
		api.GET("/users", usersController.List)
		api.GET("/users/:id", usersController.Get)
		api.POST("/users", usersController.Create)
		api.PUT("/users/:id", usersController.Update)
		api.DELETE("/users/:id", usersController.Delete)

		api.GET("/books", booksController.List)
		api.GET("/books/:id", booksController.Get)
		api.POST("/books", booksController.Create)
		api.PUT("/books/:id", booksController.Update)
		api.DELETE("/books/:id", booksController.Delete)

		api.GET("/copies", copiesController.List)
		api.GET("/copies/:id", copiesController.Get)
		api.GET("/copies/book/:bookId", copiesController.ListForBook)
		api.POST("/copies", copiesController.Create)
		api.PUT("/copies/:id", copiesController.UpdateLabel)
		api.DELETE("/copies/:id", copiesController.Delete)

		api.GET("/issuedBooks", loansController.List)
		api.GET("/issuedBooks/:id", loansController.Get)
		api.POST("/issuedBooks", loansController.Issue)
		api.PUT("/issuedBooks/:id", loansController.Update)
		api.POST("/issuedBooks/:id/return", loansController.Return)
		api.DELETE("/issuedBooks/:id", loansController.Delete)

		admin := api.Group("")
		admin.Use(auth.RequireRole(cfg.AuthService, entities.UserRoleAdmin))
		{
			admin.GET("/audit", auditController.List)
		}
	}

	return router
}
