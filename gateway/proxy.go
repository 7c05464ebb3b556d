package gateway

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// proxy forwards a cookie-authenticated request to a fixed upstream path.
func (s *Server) proxy(upstreamPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.forward(c, upstreamPath, false)
	}
}

// proxyList is proxy with list-envelope normalization of 2xx answers.
func (s *Server) proxyList(upstreamPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.forward(c, upstreamPath, true)
	}
}

// proxyID substitutes the :id route param into the upstream path format.
func (s *Server) proxyID(format string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.forward(c, fmt.Sprintf(format, url.PathEscape(c.Param("id"))), false)
	}
}

func (s *Server) forward(c *gin.Context, upstreamPath string, normalize bool) {
	token, ok := s.requestToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	status, data, err := s.client.Forward(c.Request.Context(), c.Request.Method, upstreamPath, c.Request.URL.Query(), token, body)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if status >= 400 {
		c.JSON(status, gin.H{"error": upstreamMessage(status, data)})
		return
	}
	if len(data) == 0 {
		c.Status(status)
		return
	}
	if normalize {
		envelope, err := NormalizeList(data)
		if err != nil {
			s.log.Error().Err(err).Str("path", upstreamPath).Msg("unexpected upstream list payload")
			c.JSON(http.StatusBadGateway, gin.H{"error": "unexpected upstream payload"})
			return
		}
		c.JSON(status, envelope)
		return
	}
	c.Data(status, "application/json", data)
}

// Leaderboard proxies the public leaderboard with query passthrough and a
// typed, decimal-safe normalization of the result.
func (s *Server) Leaderboard(c *gin.Context) {
	query := url.Values{}
	query.Set("sort_by", c.DefaultQuery("sort_by", "win_rate"))
	query.Set("order", c.DefaultQuery("order", "desc"))
	if search := c.Query("search"); search != "" {
		query.Set("search", search)
	}

	status, data, err := s.client.Forward(c.Request.Context(), http.MethodGet, "/api/v1/leaderboard", query, "", nil)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if status >= 400 {
		c.JSON(status, gin.H{"error": upstreamMessage(status, data)})
		return
	}

	envelope, err := NormalizeLeaderboard(data)
	if err != nil {
		s.log.Error().Err(err).Msg("unexpected leaderboard payload")
		c.JSON(http.StatusBadGateway, gin.H{"error": "unexpected upstream payload"})
		return
	}
	c.JSON(status, envelope)
}
