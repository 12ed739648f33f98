package handler

import (
	"context"

	"cantor/internal/adapter/http/dto"
	"cantor/internal/core/domain"
	"cantor/internal/core/ports"
	"cantor/pkg/apperror"
	"cantor/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type exchangeFunc func(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, code string, rate decimal.Decimal) (*domain.Transaction, error)

// WalletHandler exposes the wallet snapshot and the settlement operations.
type WalletHandler struct {
	settlementSvc ports.SettlementService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(settlementSvc ports.SettlementService) *WalletHandler {
	return &WalletHandler{settlementSvc: settlementSvc}
}

// GetWallet handles GET /api/v1/wallet.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	snap, err := h.settlementSvc.Snapshot(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromUser(snap))
}

// ListTransactions handles GET /api/v1/wallet/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	snap, err := h.settlementSvc.Snapshot(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	txns := make([]dto.TransactionResponse, 0, len(snap.TransactionHistory))
	for _, txn := range snap.TransactionHistory {
		txns = append(txns, dto.FromTransaction(txn))
	}
	response.OK(c, txns)
}

// TopUp handles POST /api/v1/wallet/topup.
func (h *WalletHandler) TopUp(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}

	txn, err := h.settlementSvc.TopUp(c.Request.Context(), userID, amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.FromTransaction(*txn))
}

// Buy handles POST /api/v1/wallet/buy.
func (h *WalletHandler) Buy(c *gin.Context) {
	h.exchange(c, h.settlementSvc.Buy)
}

// Sell handles POST /api/v1/wallet/sell.
func (h *WalletHandler) Sell(c *gin.Context) {
	h.exchange(c, h.settlementSvc.Sell)
}

func (h *WalletHandler) exchange(c *gin.Context, op exchangeFunc) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		response.Error(c, apperror.ErrInvalidRate())
		return
	}

	txn, err := op(c.Request.Context(), userID, amount, req.Code, rate)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.FromTransaction(*txn))
}
