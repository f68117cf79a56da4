package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bingo-platform/internal/apperr"
	"bingo-platform/internal/model"
	"bingo-platform/internal/service"
)

// WalletHandler serves balance and transaction endpoints.
type WalletHandler struct {
	wallets *service.WalletService
}

// NewWalletHandler creates a WalletHandler instance.
func NewWalletHandler(wallets *service.WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

func toWalletResponse(w *model.Wallet) gin.H {
	return gin.H{"user_id": w.UserID, "balance": w.Balance.String()}
}

// Balance handles GET /wallet.
func (h *WalletHandler) Balance(c *gin.Context) {
	w, err := h.wallets.GetBalance(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWalletResponse(w))
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// Deposit handles POST /wallet/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.InvalidInput, "invalid request body", err))
		return
	}
	w, err := h.wallets.Deposit(c.Request.Context(), userID(c), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWalletResponse(w))
}

// Withdraw handles POST /wallet/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.InvalidInput, "invalid request body", err))
		return
	}
	w, err := h.wallets.Withdraw(c.Request.Context(), userID(c), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWalletResponse(w))
}

// Transactions handles GET /wallet/transactions?limit=50.
func (h *WalletHandler) Transactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	txs, err := h.wallets.Transactions(c.Request.Context(), userID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(txs))
	for _, tx := range txs {
		out = append(out, gin.H{
			"id":           tx.ID,
			"type":         tx.Type,
			"amount":       tx.Amount.String(),
			"description":  tx.Description,
			"reference_id": tx.ReferenceID,
			"created_at":   tx.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out})
}