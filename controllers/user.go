package controllers

import (
	"net/http"
	"time"

	"marketlens_backend/middleware"
	"marketlens_backend/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserController handles authentication and profile requests
type UserController struct {
	db *gorm.DB
}

// NewUserController creates a new user controller
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

// RegisterRequest is the payload for POST /auth/register
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name"`
}

// LoginRequest is the payload for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new user account
// POST /api/v1/auth/register
func (uc *UserController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	var existing models.User
	if err := uc.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	} else if err != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing user"})
		return
	}

	user := models.User{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     "user",
		IsActive: true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	if err := uc.db.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	// Every user gets a default watchlist
	defaultList := models.Watchlist{UserID: user.ID, Name: "My Watchlist", IsDefault: true}
	if err := uc.db.Create(&defaultList).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create default watchlist"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": user})
}

// Login authenticates a user and returns a JWT
// POST /api/v1/auth/login
func (uc *UserController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	ip := c.ClientIP()

	var user models.User
	if err := uc.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		middleware.RecordLoginAttempt(ip, false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is disabled"})
		return
	}

	if !user.CheckPassword(req.Password) {
		middleware.RecordLoginAttempt(ip, false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	middleware.RecordLoginAttempt(ip, true)

	now := time.Now()
	uc.db.Model(&user).Update("last_login_at", now)

	session := models.UserSession{
		UserID:    user.ID,
		Token:     token,
		IPAddress: ip,
		UserAgent: c.Request.UserAgent(),
		ExpiresAt: now.Add(middleware.TokenLifetime),
	}
	if err := uc.db.Create(&session).Error; err != nil {
		// Session tracking is best effort
		c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Me returns the authenticated user's profile
// GET /api/v1/auth/me
func (uc *UserController) Me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var user models.User
	if err := uc.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}

// UpdatePreferences stores the user's dashboard preferences JSON
// PUT /api/v1/auth/preferences
func (uc *UserController) UpdatePreferences(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var body struct {
		Preferences string `json:"preferences" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := uc.db.Model(&models.User{}).Where("id = ?", userID).
		Update("preferences", body.Preferences).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update preferences"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}
