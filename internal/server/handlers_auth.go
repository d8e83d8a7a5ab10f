package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kostkita/kostkita/backend/internal/auth"
	"github.com/kostkita/kostkita/backend/internal/users"
	"go.uber.org/zap"
)

const (
	loginResultSuccess  = "success"
	loginResultRejected = "rejected"
	loginResultError    = "error"
)

type loginRequestPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequestPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type profileRequestPayload struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type changePasswordRequestPayload struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type userPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type authResponsePayload struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	ExpiresIn int64       `json:"expires_in"`
	User      userPayload `json:"user"`
}

func newUserPayload(user users.User) userPayload {
	return userPayload{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
	}
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Username) == "" || request.Password == "" {
		writeInvalidRequest(c)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), request.Username, request.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			h.recordLogin(loginResultRejected)
			h.logger.Info("login rejected", zap.String("client_ip", c.ClientIP()))
		} else {
			h.recordLogin(loginResultError)
		}
		h.writeError(c, "auth.login", err)
		return
	}

	h.recordLogin(loginResultSuccess)
	h.respondWithToken(c, http.StatusOK, user)
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	var request registerRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidRequest(c)
		return
	}

	user, err := h.users.Register(c.Request.Context(), users.Registration{
		Username: request.Username,
		Email:    request.Email,
		Password: request.Password,
		FullName: request.FullName,
	})
	if err != nil {
		h.writeError(c, "auth.register", err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *httpHandler) respondWithToken(c *gin.Context, status int, user users.User) {
	token, expiresIn, err := h.tokens.IssueToken(c.Request.Context(), auth.Principal{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		h.logger.Error("failed to issue token", zap.String("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}
	c.JSON(status, authResponsePayload{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: expiresIn,
		User:      newUserPayload(user),
	})
}

func (h *httpHandler) handleGetProfile(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	user, err := h.users.Profile(c.Request.Context(), principal.UserID)
	if err != nil {
		h.writeError(c, "auth.profile", err)
		return
	}
	c.JSON(http.StatusOK, newUserPayload(user))
}

func (h *httpHandler) handleUpdateProfile(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var request profileRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidRequest(c)
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), principal.UserID, users.ProfileUpdate{
		Email:    request.Email,
		FullName: request.FullName,
	})
	if err != nil {
		h.writeError(c, "auth.update_profile", err)
		return
	}
	c.JSON(http.StatusOK, newUserPayload(user))
}

func (h *httpHandler) handleChangePassword(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var request changePasswordRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidRequest(c)
		return
	}
	if err := h.users.ChangePassword(c.Request.Context(), principal.UserID, request.OldPassword, request.NewPassword); err != nil {
		h.writeError(c, "auth.change_password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func (h *httpHandler) recordLogin(result string) {
	if h.metrics != nil {
		h.metrics.RecordLoginAttempt(result)
	}
}
