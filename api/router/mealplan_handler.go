package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mealplanapp "github.com/rvalette/mealmind/api/services/mealplan/app"
)

type mealplanHandler struct {
	svc    mealplanapp.Service
	logger *zap.Logger
}

func newMealplanHandler(svc mealplanapp.Service, logger *zap.Logger) *mealplanHandler {
	return &mealplanHandler{svc: svc, logger: logger}
}

// Generate handles POST /api/generate-mealplan. Every failure class (bad
// input, upstream error, unparseable completion) surfaces as the same generic
// retry-later 500; the distinction lives in the logs.
func (h *mealplanHandler) Generate(c *gin.Context) {
	var req mealplanapp.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid meal plan request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate meal plan. Please try again later."})
		return
	}

	plan, err := h.svc.Generate(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("meal plan generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate meal plan. Please try again later."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"mealPlan": plan})
}
