package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bingo-platform/internal/service"
)

// NewRouter wires every route onto a gin engine.
func NewRouter(
	auth *service.AuthService,
	authHandler *AuthHandler,
	gameHandler *GameHandler,
	walletHandler *WalletHandler,
	wsHandler *WSHandler,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/login", authHandler.Login)

	authed := r.Group("/", AuthRequired(auth))
	{
		authed.GET("/games", gameHandler.List)
		authed.POST("/games", gameHandler.Create)
		authed.GET("/games/:id", gameHandler.Get)
		authed.POST("/games/:id/start", gameHandler.Start)
		authed.POST("/games/:id/draw", gameHandler.Draw)
		authed.POST("/games/:id/cancel", gameHandler.Cancel)
		authed.POST("/games/:id/tickets", gameHandler.Purchase)
		authed.GET("/tickets/me", gameHandler.MyTickets)

		authed.GET("/wallet", walletHandler.Balance)
		authed.POST("/wallet/deposit", walletHandler.Deposit)
		authed.POST("/wallet/withdraw", walletHandler.Withdraw)
		authed.GET("/wallet/transactions", walletHandler.Transactions)

		authed.GET("/ws/games/:id", wsHandler.Subscribe)
	}

	return r
}