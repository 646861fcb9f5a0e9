package devserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/editsync/editsync/internal/api"
	"github.com/editsync/editsync/pkg/logger"
)

func wireUser(u *userRecord) api.User {
	return api.User{ID: u.ID, Email: u.Email, Name: u.Name}
}

func (s *Server) handleRegister(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "email, password, and name are required"})
		return
	}

	u, err := s.store.createUser(req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, errDuplicateEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	tok, err := s.mintToken(u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to issue token"})
		return
	}
	c.JSON(http.StatusCreated, api.AuthResponse{Token: tok, User: wireUser(u)})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	u, ok := s.store.userByEmail(req.Email)
	if !ok || u.Password != req.Password {
		// plain 401, no code: bad credentials must not trigger the
		// client's global session invalidation
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid email or password"})
		return
	}

	tok, err := s.mintToken(u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, api.AuthResponse{Token: tok, User: wireUser(u)})
}

// handleLogout revokes the presented token for the remainder of its life.
func (s *Server) handleLogout(c *gin.Context) {
	raw := c.GetString("token")
	if err := s.blacklist.Add(c.Request.Context(), raw, s.ttl); err != nil {
		logger.Warnf("failed to blacklist token: %v", err)
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleProfile(c *gin.Context) {
	u, ok := s.store.userByID(actingUser(c))
	if !ok {
		unauthorized(c, "USER_NOT_FOUND", "user no longer exists")
		return
	}
	c.JSON(http.StatusOK, wireUser(u))
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	var req struct {
		Email *string `json:"email"`
		Name  *string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	u, err := s.store.updateUser(actingUser(c), req.Email, req.Name)
	if err != nil {
		if errors.Is(err, errDuplicateEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "email already registered"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	c.JSON(http.StatusOK, wireUser(u))
}

func (s *Server) handleDeleteAccount(c *gin.Context) {
	if err := s.store.deleteUser(actingUser(c)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	// the token would still verify; revoke it so it cannot be replayed
	if err := s.blacklist.Add(c.Request.Context(), c.GetString("token"), s.ttl); err != nil {
		logger.Warnf("failed to blacklist token: %v", err)
	}
	c.Status(http.StatusNoContent)
}
