package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	auditsvc "github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/audit"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/auth"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/users"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/entities"
)

// UsersController handles member account endpoints and login/logout.
type UsersController struct {
	users    *users.Repository
	auth     *auth.Service
	sessions *auth.SessionManager
	audit    *auditsvc.Service
}

// NewUsersController creates a new users controller.
func NewUsersController(usersRepo *users.Repository, authService *auth.Service, sessions *auth.SessionManager, auditService *auditsvc.Service) *UsersController {
	return &UsersController{
		users:    usersRepo,
		auth:     authService,
		sessions: sessions,
		audit:    auditService,
	}
}

type userRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age"`
	College  string `json:"college"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// List returns all member accounts.
func (uc *UsersController) List(c *gin.Context) {
	list, err := uc.users.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch users")
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get returns one member account.
func (uc *UsersController) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := uc.users.GetUser(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Create registers a new member account.
func (uc *UsersController) Create(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := uc.auth.CreateUser(c.Request.Context(), auth.NewUserRequest{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
		College:  req.College,
		Role:     entities.UserRole(req.Role),
	})
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			respondError(c, http.StatusConflict, err.Error())
			return
		}
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Update modifies a member account. A non-empty password is re-hashed.
func (uc *UsersController) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := uc.users.GetUser(ctx, id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Age > 0 {
		user.Age = req.Age
	}
	if req.College != "" {
		user.College = req.College
	}

	if err := uc.users.SaveUser(ctx, user); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update user")
		return
	}

	if req.Password != "" {
		if err := uc.auth.ChangePassword(ctx, user.ID, req.Password); err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	c.JSON(http.StatusOK, user)
}

// Delete removes a member account.
func (uc *UsersController) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := uc.users.DeleteUser(c.Request.Context(), id); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// Login authenticates credentials and starts a session.
func (uc *UsersController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := uc.auth.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		uc.audit.LogAuth(0, "login", false)
		if errors.Is(err, auth.ErrAccountLocked) {
			respondError(c, http.StatusTooManyRequests, err.Error())
			return
		}
		respondError(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	// No session manager when auth mode is "none"; login still validates
	// credentials so clients behave the same in both modes.
	if uc.sessions != nil {
		if err := uc.sessions.LoginUser(c, user.ID); err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to start session")
			return
		}
	}

	uc.audit.LogAuth(user.ID, "login", true)
	c.JSON(http.StatusOK, user)
}

// Logout destroys the current session.
func (uc *UsersController) Logout(c *gin.Context) {
	userID := auth.CurrentUserID(c)
	if uc.sessions != nil {
		if err := uc.sessions.LogoutUser(c); err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to end session")
			return
		}
	}
	uc.audit.LogAuth(userID, "logout", true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
