package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rvalette/mealmind/api/middleware"
	billingapp "github.com/rvalette/mealmind/api/services/billing/app"
)

type billingHandler struct {
	svc    billingapp.Service
	logger *zap.Logger
}

func newBillingHandler(svc billingapp.Service, logger *zap.Logger) *billingHandler {
	return &billingHandler{svc: svc, logger: logger}
}

// ListPlans handles GET /api/plans.
func (h *billingHandler) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": h.svc.Catalog().Plans()})
}

type checkoutRequest struct {
	PlanType string `json:"planType" binding:"required"`
}

// Checkout handles POST /api/checkout.
func (h *billingHandler) Checkout(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found."})
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "planType is required."})
		return
	}

	sessionID, err := h.svc.CreateCheckoutSession(c.Request.Context(), identity.UserID, req.PlanType)
	if err != nil {
		h.mapError(c, identity.UserID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID})
}

type changePlanRequest struct {
	NewPlan string `json:"newPlan" binding:"required"`
}

// ChangePlan handles POST /api/profile/change-plan.
func (h *billingHandler) ChangePlan(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found."})
		return
	}

	var req changePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "newPlan is required."})
		return
	}

	if err := h.svc.ChangePlan(c.Request.Context(), identity.UserID, req.NewPlan); err != nil {
		h.mapError(c, identity.UserID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Plan updated successfully."})
}

// Unsubscribe handles POST /api/profile/unsubscribe.
func (h *billingHandler) Unsubscribe(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found."})
		return
	}

	if err := h.svc.Unsubscribe(c.Request.Context(), identity.UserID); err != nil {
		h.mapError(c, identity.UserID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subscription canceled."})
}

func (h *billingHandler) mapError(c *gin.Context, userID string, err error) {
	switch {
	case errors.Is(err, billingapp.ErrUnknownPlan):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan type."})
	case errors.Is(err, billingapp.ErrNoSubscription):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No active subscription."})
	default:
		h.logger.Error("billing operation failed", zap.String("userId", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error."})
	}
}
