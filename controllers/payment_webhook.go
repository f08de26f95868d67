package controllers

import (
	"errors"
	"net/http"

	"annex-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WebhookController struct {
	Webhooks *services.WebhookService
	Logger   *zap.Logger
}

func NewWebhookController(webhooks *services.WebhookService, logger *zap.Logger) *WebhookController {
	return &WebhookController{Webhooks: webhooks, Logger: logger}
}

// HandlePaymentWebhook receives PayChangu callbacks. Only a signature
// failure produces a non-2xx response; the gateway retries on anything else,
// so deliberately ignored events must still acknowledge.
func (wc *WebhookController) HandlePaymentWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		wc.Logger.Warn("failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	signature := c.GetHeader("Signature")

	if err := wc.Webhooks.HandleWebhook(c.Request.Context(), signature, payload); err != nil {
		if errors.Is(err, services.ErrWebhookSecretNotConfigured) {
			wc.Logger.Error("webhook secret not configured")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook not configured"})
			return
		}
		wc.Logger.Warn("webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook signature"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
