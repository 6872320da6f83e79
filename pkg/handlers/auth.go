package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"campustube/pkg/auth"
	"campustube/pkg/database"
	"campustube/pkg/models"
)

type Credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SignUpRequest struct {
	Credentials
	FullName    string `json:"full_name"`
	MatriculeID string `json:"matricule_id" binding:"required"`
}

type SessionResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

func (h *Handler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		h.fail(c, err, "Error creating user")
		return
	}

	user := &models.User{ID: uuid.NewString(), Email: req.Email, Password: hashed}
	profile := &models.Profile{FullName: req.FullName, MatriculeID: req.MatriculeID}
	if err := h.store.CreateAccount(user, profile); err != nil {
		if errors.Is(err, database.ErrConflict) {
			h.fail(c, err, "Email already registered")
			return
		}
		h.fail(c, err, "Error creating user")
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Email)
	if err != nil {
		h.fail(c, err, "Error generating token")
		return
	}
	c.JSON(http.StatusCreated, SessionResponse{Token: token, UserID: user.ID})
}

func (h *Handler) Login(c *gin.Context) {
	var creds Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.store.UserByEmail(creds.Email)
	if err != nil || !auth.CheckPassword(user.Password, creds.Password) {
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			h.fail(c, err, "Error looking up user")
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Email)
	if err != nil {
		h.fail(c, err, "Error generating token")
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Token: token, UserID: user.ID})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.tokens.Revoke(c.Request.Context(), auth.FromContext(c)); err != nil {
		h.fail(c, err, "Error logging out")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Logged out"})
}

// CurrentUser answers with {"user": null} for anonymous callers.
func (h *Handler) CurrentUser(c *gin.Context) {
	claims := auth.FromContext(c)
	if claims == nil {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": gin.H{"id": claims.UserID, "email": claims.Email}})
}

func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.store.Profile(c.Param("id"))
	if err != nil {
		h.fail(c, err, "Profile not found")
		return
	}
	c.JSON(http.StatusOK, profile)
}
