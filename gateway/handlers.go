package gateway

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/hyperdash/session"
)

// Nonce requests a single-use login challenge for a wallet address.
func (s *Server) Nonce(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet_address is required"})
		return
	}

	challenge, err := s.client.RequestNonce(c.Request.Context(), req.WalletAddress)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

// WalletLogin forwards a signed challenge and, on success, issues the session
// cookie alongside the token payload.
func (s *Server) WalletLogin(c *gin.Context) {
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

	result, err := s.client.VerifyWallet(c.Request.Context(), req.WalletAddress, req.Signature, req.Message, req.Chain)
	if err != nil {
		s.respondError(c, err)
		return
	}

	session.WriteToken(c.Writer, result.AccessToken, s.cookies)
	c.JSON(http.StatusOK, result)
}

// GoogleLogin forwards a Google ID token and issues the session cookie on
// success.
func (s *Server) GoogleLogin(c *gin.Context) {
	var req struct {
		IDToken string `json:"id_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id_token is required"})
		return
	}

	result, err := s.client.VerifyGoogle(c.Request.Context(), req.IDToken)
	if err != nil {
		s.respondError(c, err)
		return
	}

	session.WriteToken(c.Writer, result.AccessToken, s.cookies)
	c.JSON(http.StatusOK, result)
}

// Logout revokes the session upstream best-effort and always clears the
// cookie with a 200. The client has decided to log out; an unreachable or
// disagreeing backend must not keep the browser logged in.
func (s *Server) Logout(c *gin.Context) {
	if token, ok := s.requestToken(c); ok {
		if err := s.client.Logout(c.Request.Context(), token); err != nil {
			s.log.Warn().Err(err).Msg("upstream logout failed")
		}
	}

	session.ClearToken(c.Writer, s.cookies)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me resolves the current user behind the request token.
func (s *Server) Me(c *gin.Context) {
	token, ok := s.requestToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	user, err := s.client.CurrentUser(c.Request.Context(), token)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Refresh exchanges the request token for a fresh one and rewrites the
// session cookie.
func (s *Server) Refresh(c *gin.Context) {
	token, ok := s.requestToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	newToken, err := s.client.RefreshToken(c.Request.Context(), token)
	if err != nil {
		s.respondError(c, err)
		return
	}

	session.WriteToken(c.Writer, newToken, s.cookies)
	c.JSON(http.StatusOK, gin.H{
		"access_token": newToken,
		"expires_in":   int64(session.DefaultTTL.Seconds()),
	})
}

// requestToken extracts the session token from the Authorization header or,
// failing that, the session cookie.
func (s *Server) requestToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		if token := strings.TrimPrefix(header, "Bearer "); token != "" {
			return token, true
		}
	}
	return session.ReadToken(c.Request)
}

// respondError renders a classified upstream failure as the single
// {"error": string} envelope the frontend consumes.
func (s *Server) respondError(c *gin.Context, err error) {
	var upstream *UpstreamError
	switch {
	case errors.Is(err, ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "upstream request timed out"})
	case errors.As(err, &upstream):
		c.JSON(upstream.Status, gin.H{"error": upstream.Message})
	default:
		s.log.Error().Err(err).Msg("upstream request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
