package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"casino-ledger-api/internal/config"
	"casino-ledger-api/internal/models"
	"casino-ledger-api/internal/services"
	"casino-ledger-api/pkg/logger"
	"casino-ledger-api/pkg/metrics"
)

// ResolveHandler handles resolution submissions: the HTTP path into
// the irreversible "write the outcome to the ledger" operation.
type ResolveHandler struct {
	ledger   services.LedgerClientInterface
	resolver *config.ResolverConfig
	metrics  *metrics.Collector
}

// NewResolveHandler creates a new ResolveHandler instance
func NewResolveHandler(ledger services.LedgerClientInterface, resolver *config.ResolverConfig, collector *metrics.Collector) *ResolveHandler {
	return &ResolveHandler{
		ledger:   ledger,
		resolver: resolver,
		metrics:  collector,
	}
}

// ResolveGame handles POST /api/resolve-game requests
func (h *ResolveHandler) ResolveGame(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var req models.ResolveGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.HandleError(c, models.NewAppErrorWithDetails(
			models.ErrorCodeMalformedJSON,
			"Invalid JSON format",
			err.Error(),
		), log)
		return
	}

	if appErr := validateResolveRequest(&req); appErr != nil {
		models.HandleError(c, appErr, log)
		return
	}

	// Configuration is checked before any ledger call: a resolver
	// without a signing credential can never submit, so fail fast.
	if !h.resolver.HasSigningKey() {
		models.HandleError(c, models.NewAppError(
			models.ErrorCodeResolverNotConfigured,
			"Resolver signing credential is not configured",
		), log)
		return
	}

	log.Info("Submitting game resolution",
		zap.String("game_id", req.GameID),
		zap.Bool("did_win", *req.DidWin),
		zap.String("multiplier", req.Multiplier.String()),
		zap.String("game_type", req.GameType),
	)

	result, err := h.ledger.SubmitTransaction(c.Request.Context(), h.resolver.ContractID, "resolve_game", map[string]interface{}{
		"game_id":    req.GameID,
		"did_win":    *req.DidWin,
		"multiplier": req.Multiplier.String(),
	}, h.resolver.AccountID)

	now := time.Now().UTC()

	if err != nil {
		// A duplicate submission means the outcome is already on the
		// ledger; report success so retries are harmless.
		if services.IsGameAlreadySettled(err) {
			h.metrics.RecordResolution(true)
			log.Info("Game already resolved", zap.String("game_id", req.GameID))
			c.JSON(http.StatusOK, models.ResolveGameResponse{
				Success:    true,
				Message:    "Game was already resolved",
				GameID:     req.GameID,
				DidWin:     req.DidWin,
				Multiplier: *req.Multiplier,
				Timestamp:  now,
			})
			return
		}

		models.HandleError(c, submissionError(err), log)
		return
	}

	h.metrics.RecordResolution(false)
	log.Info("Game resolution submitted",
		zap.String("game_id", req.GameID),
		zap.String("tx_hash", result.TransactionHash),
	)

	c.JSON(http.StatusOK, models.ResolveGameResponse{
		Success:         true,
		Message:         "Game resolved",
		GameID:          req.GameID,
		DidWin:          req.DidWin,
		Multiplier:      *req.Multiplier,
		TransactionHash: result.TransactionHash,
		Timestamp:       now,
	})
}

// validateResolveRequest checks the required fields. DidWin must be an
// explicit boolean and Multiplier a positive decimal.
func validateResolveRequest(req *models.ResolveGameRequest) *models.AppError {
	if req.GameID == "" {
		return models.NewAppErrorWithDetails(
			models.ErrorCodeInvalidRequest,
			"gameId is required",
			"A resolution must name the game it settles",
		)
	}
	if req.DidWin == nil {
		return models.NewAppErrorWithDetails(
			models.ErrorCodeInvalidRequest,
			"didWin is required and must be a boolean",
			"Game ID: "+req.GameID,
		)
	}
	if req.Multiplier == nil || !req.Multiplier.IsPositive() {
		return models.NewAppErrorWithDetails(
			models.ErrorCodeInvalidRequest,
			"multiplier is required and must be positive",
			"Game ID: "+req.GameID,
		)
	}
	return nil
}

// submissionError maps ledger errors onto the API error taxonomy.
func submissionError(err error) *models.AppError {
	var rejected *services.ContractRejectedError
	switch {
	case errors.Is(err, services.ErrNoSigningKey):
		return models.NewAppErrorWithCause(models.ErrorCodeResolverNotConfigured, "Resolver signing credential is not configured", err)
	case errors.Is(err, services.ErrInsufficientGas):
		return models.NewAppErrorWithCause(models.ErrorCodeInsufficientGas, "Transaction ran out of gas", err)
	case errors.Is(err, services.ErrRPCUnavailable):
		return models.NewAppErrorWithCause(models.ErrorCodeRPCUnavailable, "Ledger RPC unavailable", err)
	case errors.As(err, &rejected):
		return models.NewAppErrorWithDetails(models.ErrorCodeContractRejected, "Contract rejected the resolution", rejected.Message)
	default:
		return models.NewAppErrorWithCause(models.ErrorCodeInternalError, "Resolution submission failed", err)
	}
}
