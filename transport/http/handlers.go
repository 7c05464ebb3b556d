package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/hyperdash/core"
	"github.com/layer-3/hyperdash/service"
)

// AuthHandlers contains HTTP handlers for the identity endpoints the gateway
// proxies to.
type AuthHandlers struct {
	authService *service.AuthService
}

// NewAuthHandlers creates new auth handlers.
func NewAuthHandlers(authService *service.AuthService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
	}
}

// Nonce issues a single-use login challenge for a wallet address.
func (h *AuthHandlers) Nonce(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet_address is required"})
		return
	}

	challenge, err := h.authService.CreateChallenge(c.Request.Context(), req.WalletAddress)
	if err != nil {
		if errors.Is(err, core.ErrInvalidAddress) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nonce":      challenge.Nonce,
		"message":    challenge.Message,
		"expires_at": challenge.ExpiresAt.Format(time.RFC3339),
	})
}

// VerifyWallet authenticates a signed challenge and issues tokens.
func (h *AuthHandlers) VerifyWallet(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
		Message       string `json:"message" binding:"required"`
		Chain         string `json:"chain"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.authService.VerifyWallet(c.Request.Context(), req.WalletAddress, req.Signature, req.Message, req.Chain)
	if err != nil {
		status, msg := walletVerifyError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, result)
}

func walletVerifyError(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidAddress):
		return http.StatusBadRequest, "invalid wallet address"
	case errors.Is(err, core.ErrInvalidChallenge):
		return http.StatusUnauthorized, "invalid or unknown challenge"
	case errors.Is(err, core.ErrChallengeConsumed):
		return http.StatusUnauthorized, "challenge already used"
	case errors.Is(err, core.ErrTokenExpired):
		return http.StatusUnauthorized, "challenge expired"
	case errors.Is(err, core.ErrInvalidSignature):
		return http.StatusUnauthorized, "invalid signature"
	default:
		return http.StatusInternalServerError, "authentication failed"
	}
}

// LinkWallet attaches a verified wallet to the authenticated user. The
// caller proves ownership the same way login does: a signature over a
// freshly issued challenge for that address.
func (h *AuthHandlers) LinkWallet(c *gin.Context) {
	user, exists := c.Get(contextUserKey)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user not found in context"})
		return
	}

	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
		Message       string `json:"message" binding:"required"`
		Chain         string `json:"chain"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	updated, err := h.authService.LinkWallet(c.Request.Context(), user.(*core.User).ID, req.WalletAddress, req.Signature, req.Message, req.Chain)
	if err != nil {
		if errors.Is(err, core.ErrWalletLinked) {
			c.JSON(http.StatusConflict, gin.H{"error": "wallet already linked to another account"})
			return
		}
		status, msg := walletVerifyError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// VerifyGoogle authenticates a Google ID token and issues tokens.
func (h *AuthHandlers) VerifyGoogle(c *gin.Context) {
	var req struct {
		IDToken string `json:"id_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id_token is required"})
		return
	}

	result, err := h.authService.VerifyGoogle(c.Request.Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, core.ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "google authentication failed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "google authentication failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Refresh rotates the session behind the presented bearer token.
func (h *AuthHandlers) Refresh(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
		return
	}

	result, err := h.authService.RefreshByAccess(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrTokenExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
		case errors.Is(err, core.ErrTokenInvalidated):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token has been invalidated"})
		default:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// Logout revokes the session behind the presented bearer token. An invalid or
// expired token still yields 200: the client is clearing local state either
// way, and a retry against a dead token must not be able to fail.
func (h *AuthHandlers) Logout(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
		return
	}

	_ = h.authService.Logout(c.Request.Context(), token)

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the user behind the validated access token.
func (h *AuthHandlers) Me(c *gin.Context) {
	user, exists := c.Get(contextUserKey)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user not found in context"})
		return
	}

	c.JSON(http.StatusOK, user)
}
