package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"casino-ledger-api/internal/models"
	"casino-ledger-api/internal/services"
	"casino-ledger-api/pkg/logger"
)

// AuthMiddleware validates the X-API-Key header against the key store.
func AuthMiddleware(authService services.AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.GetLogger().WithContext(c.Request.Context())

		key := c.GetHeader("X-API-Key")
		if key == "" {
			models.HandleError(c, models.NewAppError(
				models.ErrorCodeMissingAPIKey,
				"API key is required",
			), log)
			c.Abort()
			return
		}

		apiKey, err := authService.ValidateAPIKey(key)
		if err != nil {
			var appErr *models.AppError
			switch {
			case errors.Is(err, services.ErrInvalidAPIKey):
				appErr = models.NewAppError(models.ErrorCodeInvalidAPIKey, "Invalid API key")
			case errors.Is(err, services.ErrInactiveAPIKey):
				appErr = models.NewAppError(models.ErrorCodeInactiveAPIKey, "API key is inactive")
			default:
				appErr = models.NewAppErrorWithCause(models.ErrorCodeDatabaseError, "Key store unavailable", err)
			}
			models.HandleError(c, appErr, log)
			c.Abort()
			return
		}

		log.Debug("API key validated", zap.String("key_name", apiKey.Name))
		c.Set("api_key_name", apiKey.Name)
		c.Next()
	}
}
