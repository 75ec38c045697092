package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rvalette/mealmind/api/middleware"
	billingapp "github.com/rvalette/mealmind/api/services/billing/app"
	billinggw "github.com/rvalette/mealmind/api/services/billing/gateway"
	mealplanapp "github.com/rvalette/mealmind/api/services/mealplan/app"
	profileapp "github.com/rvalette/mealmind/api/services/profile/app"
)

// New builds the central HTTP router. Webhook delivery is unauthenticated
// (the provider signs the payload instead); profile and billing operations
// require a resolved caller identity.
func New(
	logger *zap.Logger,
	authMW *middleware.AuthMiddleware,
	profileSvc profileapp.Service,
	mealplanSvc mealplanapp.Service,
	billingSvc billingapp.Service,
	paymentGW billinggw.PaymentGateway,
) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.Recovery(logger))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	profileHandler := newProfileHandler(profileSvc, logger)
	mealplanHandler := newMealplanHandler(mealplanSvc, logger)
	billingHandler := newBillingHandler(billingSvc, logger)
	webhookHandler := newWebhookHandler(billingSvc, paymentGW, logger)

	api := engine.Group("/api")
	{
		api.POST("/create-profile", authMW.RequireIdentity(), profileHandler.CreateProfile)
		api.POST("/generate-mealplan", mealplanHandler.Generate)
		api.POST("/webhooks", webhookHandler.Handle)

		api.GET("/plans", billingHandler.ListPlans)
		api.POST("/checkout", authMW.RequireIdentity(), billingHandler.Checkout)

		profile := api.Group("/profile", authMW.RequireIdentity())
		{
			profile.GET("/subscription-status", profileHandler.SubscriptionStatus)
			profile.POST("/change-plan", billingHandler.ChangePlan)
			profile.POST("/unsubscribe", billingHandler.Unsubscribe)
		}
	}

	return engine
}
