package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"casino-ledger-api/internal/models"
	"casino-ledger-api/internal/services"
	"casino-ledger-api/pkg/logger"
)

// BalanceHandler handles balance-related HTTP requests
type BalanceHandler struct {
	balanceService services.BalanceServiceInterface
}

// NewBalanceHandler creates a new BalanceHandler instance
func NewBalanceHandler(balanceService services.BalanceServiceInterface) *BalanceHandler {
	return &BalanceHandler{
		balanceService: balanceService,
	}
}

// requestWallet adapts a wallet-reported balance carried on the
// request into a WalletSource for the resolution chain.
type requestWallet struct {
	accountID string
	balance   string
}

func (w requestWallet) AccountBalance(accountID string) (string, bool) {
	if accountID != w.accountID {
		return "", false
	}
	return w.balance, true
}

// GetBalance handles POST /api/get-balance requests
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var req models.BalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.HandleError(c, models.NewAppErrorWithDetails(
			models.ErrorCodeMalformedJSON,
			"Invalid JSON format",
			err.Error(),
		), log)
		return
	}

	if !isValidAccountID(req.AccountID) {
		models.HandleError(c, models.NewAppErrorWithDetails(
			models.ErrorCodeInvalidAccountID,
			"Invalid account identifier",
			"Account ID: "+req.AccountID,
		), log)
		return
	}

	var wallet services.WalletSource
	if req.WalletBalance != nil {
		wallet = requestWallet{accountID: req.AccountID, balance: *req.WalletBalance}
	}

	result := h.balanceService.Resolve(c.Request.Context(), req.AccountID, wallet)

	log.Info("Balance resolved",
		zap.String("account_id", req.AccountID),
		zap.String("source", string(result.Source)),
		zap.Bool("success", result.Success),
	)

	c.JSON(http.StatusOK, models.BalanceResponse{
		AccountID: req.AccountID,
		Balance:   result.Balance,
		Source:    result.Source,
		Success:   result.Success,
		Timestamp: time.Now().UTC(),
	})
}

// InvalidateBalance handles POST /api/invalidate-balance requests,
// dropping one account's cached balance or the whole cache.
func (h *BalanceHandler) InvalidateBalance(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var req models.InvalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.HandleError(c, models.NewAppErrorWithDetails(
			models.ErrorCodeMalformedJSON,
			"Invalid JSON format",
			err.Error(),
		), log)
		return
	}

	switch {
	case req.All:
		h.balanceService.InvalidateAll()
		log.Info("Balance cache cleared")
	case isValidAccountID(req.AccountID):
		h.balanceService.Invalidate(req.AccountID)
		log.Info("Balance invalidated", zap.String("account_id", req.AccountID))
	default:
		models.HandleError(c, models.NewAppError(
			models.ErrorCodeInvalidRequest,
			"Either a valid accountId or all=true is required",
		), log)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetCacheStats handles GET /api/cache-stats requests
func (h *BalanceHandler) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.balanceService.CacheStats())
}

// isValidAccountID validates ledger account identifiers: 2-64
// characters of lowercase alphanumerics separated by . - _
func isValidAccountID(accountID string) bool {
	if len(accountID) < 2 || len(accountID) > 64 {
		return false
	}
	lastSep := true
	for _, ch := range accountID {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
			lastSep = false
		case ch == '.' || ch == '-' || ch == '_':
			if lastSep {
				return false
			}
			lastSep = true
		default:
			return false
		}
	}
	return !lastSep
}
