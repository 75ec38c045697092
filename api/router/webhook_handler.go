package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	billingapp "github.com/rvalette/mealmind/api/services/billing/app"
	billinggw "github.com/rvalette/mealmind/api/services/billing/gateway"
)

type webhookHandler struct {
	svc    billingapp.Service
	gw     billinggw.PaymentGateway
	logger *zap.Logger
}

func newWebhookHandler(svc billingapp.Service, gw billinggw.PaymentGateway, logger *zap.Logger) *webhookHandler {
	return &webhookHandler{svc: svc, gw: gw, logger: logger}
}

// Handle handles POST /api/webhooks. The signature is verified against the
// raw body before any processing; once an event is accepted as validly
// signed, the provider is acknowledged even when the transition could not be
// applied (those failures are dead-lettered by the service).
func (h *webhookHandler) Handle(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		h.logger.Error("failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body."})
		return
	}

	event, err := h.gw.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.ProcessEvent(c.Request.Context(), event); err != nil {
		h.logger.Error("webhook event rejected",
			zap.String("eventType", string(event.Type)),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}
