// Package http exposes the identity service over the HTTP contract the
// gateway forwards auth requests to.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/layer-3/hyperdash/service"
)

// SetupRouter sets up the Gin router for the identity service.
func SetupRouter(authService *service.AuthService) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	handlers := NewAuthHandlers(authService)

	auth := router.Group("/auth")
	{
		auth.POST("/wallet/nonce", handlers.Nonce)
		auth.POST("/wallet/verify", handlers.VerifyWallet)
		auth.POST("/wallet/link", AuthMiddleware(authService), handlers.LinkWallet)
		auth.POST("/google", handlers.VerifyGoogle)
		auth.POST("/refresh", handlers.Refresh)
		auth.POST("/logout", handlers.Logout)
		auth.GET("/me", AuthMiddleware(authService), handlers.Me)
	}

	return router
}
