// Package gateway is the HTTP edge of the dashboard: it terminates the
// browser session cookie, proxies auth and user-resource calls to the
// upstream backend, guards page navigation, and normalizes every upstream
// response shape and error into one contract.
package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/hyperdash/session"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server wires the gateway handlers onto a router.
type Server struct {
	client  *Client
	log     zerolog.Logger
	cookies session.CookieOptions
	docsDir string
	metrics *Metrics
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithCookieOptions sets how session cookies are issued.
func WithCookieOptions(opts session.CookieOptions) ServerOption {
	return func(s *Server) { s.cookies = opts }
}

// WithDocsDir points the docs endpoint at a markdown directory.
func WithDocsDir(dir string) ServerOption {
	return func(s *Server) { s.docsDir = dir }
}

// WithServerLogger sets the request logger.
func WithServerLogger(log zerolog.Logger) ServerOption {
	return func(s *Server) { s.log = log }
}

// WithMetrics sets the metrics collector. Defaults to an unregistered one.
func WithMetrics(m *Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// NewServer creates a gateway server around an upstream client.
func NewServer(client *Client, opts ...ServerOption) *Server {
	s := &Server{
		client:  client,
		log:     zerolog.Nop(),
		docsDir: "docs",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	return s
}

// Router builds the gin engine with all gateway routes mounted.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger(), s.metrics.Middleware(), RouteGuard())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/nonce", s.Nonce)
	auth.POST("/wallet", s.WalletLogin)
	auth.POST("/google", s.GoogleLogin)
	auth.POST("/logout", s.Logout)
	auth.POST("/refresh", s.Refresh)
	auth.GET("/me", s.Me)

	api.GET("/leaderboard", s.Leaderboard)
	api.GET("/docs", s.Docs)
	api.GET("/portfolio/copy-trading/performance", s.proxy("/api/user/portfolio/copy-trading/performance"))

	user := api.Group("/user")
	user.GET("/exchange-keys", s.proxyList("/api/user/exchange-keys"))
	user.POST("/exchange-keys", s.proxy("/api/user/exchange-keys"))
	user.POST("/exchange-keys/:id/test", s.proxyID("/api/user/exchange-keys/%s/test"))
	user.GET("/copy-subscriptions", s.proxyList("/api/user/copy-subscriptions"))
	user.POST("/copy-subscriptions", s.proxy("/api/user/copy-subscriptions"))
	user.GET("/copy-subscriptions/:id", s.proxyID("/api/user/copy-subscriptions/%s"))
	user.PUT("/copy-subscriptions/:id", s.proxyID("/api/user/copy-subscriptions/%s"))
	user.DELETE("/copy-subscriptions/:id", s.proxyID("/api/user/copy-subscriptions/%s"))
	user.POST("/copy-subscriptions/:id/pause", s.proxyID("/api/user/copy-subscriptions/%s/pause"))
	user.GET("/copy-subscriptions/:id/pending-orders", s.proxyID("/api/user/copy-subscriptions/%s/pending-orders"))
	user.GET("/portfolio/:id", s.proxyID("/api/user/portfolio/%s"))
	user.POST("/portfolio/:id/sync", s.proxyID("/api/user/portfolio/%s/sync"))

	return router
}

// requestLogger logs every request with its status and duration.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
