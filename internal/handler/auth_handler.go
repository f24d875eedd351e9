package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dianehq/diane/internal/pkg/errcode"
	"github.com/dianehq/diane/internal/pkg/jwt"
	"github.com/dianehq/diane/internal/pkg/password"
	"github.com/dianehq/diane/internal/pkg/response"
)

// AuthHandler trades the instance password for a bearer token. A single
// owner per deployment, no user table.
type AuthHandler struct {
	secret       []byte
	passwordHash string
	ttl          time.Duration
}

func NewAuthHandler(secret []byte, passwordHash string, ttl time.Duration) *AuthHandler {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthHandler{secret: secret, passwordHash: passwordHash, ttl: ttl}
}

type tokenRequest struct {
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

func (h *AuthHandler) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	if h.passwordHash == "" || password.Compare(h.passwordHash, req.Password) != nil {
		response.Error(c, errcode.ErrUnauthorized, "invalid password")
		return
	}
	token, err := jwt.GenerateToken("owner", h.secret, h.ttl)
	if err != nil {
		response.Error(c, errcode.ErrInternal, "failed to issue token")
		return
	}
	response.Success(c, tokenResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.ttl).Unix(),
	})
}
