package bootstrap

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/rvalette/mealmind/api/config"
	"github.com/rvalette/mealmind/api/database"
	"github.com/rvalette/mealmind/api/logger"
	"github.com/rvalette/mealmind/api/middleware"
	billingapp "github.com/rvalette/mealmind/api/services/billing/app"
	billinggw "github.com/rvalette/mealmind/api/services/billing/gateway"
	stripegw "github.com/rvalette/mealmind/api/services/billing/gateway/stripe"
	"github.com/rvalette/mealmind/api/services/identity/gateway/clerk"
	mealplanapp "github.com/rvalette/mealmind/api/services/mealplan/app"
	openaigw "github.com/rvalette/mealmind/api/services/mealplan/gateway/openai"
	profileapp "github.com/rvalette/mealmind/api/services/profile/app"
)

var (
	appLogger       *zap.Logger
	authMiddleware  *middleware.AuthMiddleware
	profileService  profileapp.Service
	mealplanService mealplanapp.Service
	billingService  billingapp.Service
	paymentGateway  billinggw.PaymentGateway

	initOnce sync.Once
	initErr  error
)

// Init loads config, connects the database, and wires gateways into services.
func Init() error {
	// A service already injected (e.g., by tests) means the heavy dependencies
	// must not be initialized.
	if billingService != nil {
		return nil
	}

	var err error
	if config.AppConfig == nil {
		config.AppConfig, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	cfg := config.AppConfig

	appLogger = logger.New(cfg.LogLevel, cfg.LogFormat)

	if err := database.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	stripegw.SetKey(cfg.StripeSecretKey)
	paymentGateway = stripegw.New(cfg.StripeWebhookSecret, cfg.ClientURL)

	identityGW := clerk.New(cfg.ClerkAPIURL, cfg.ClerkSecretKey)
	completionGW := openaigw.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)

	catalog := billingapp.NewCatalog(cfg.StripePriceWeekly, cfg.StripePriceMonthly, cfg.StripePriceYearly)

	profileService = profileapp.NewService(identityGW, appLogger)
	mealplanService = mealplanapp.NewService(completionGW, cfg.MealplanModel, appLogger)
	billingService = billingapp.NewService(paymentGateway, catalog, appLogger)

	authMiddleware, err = middleware.NewAuthMiddleware(cfg.ClerkPEMPublicKey, appLogger)
	if err != nil {
		return fmt.Errorf("failed to build auth middleware: %w", err)
	}

	return nil
}

// Ensure runs Init() once per process and returns any initialization error.
func Ensure() error {
	initOnce.Do(func() {
		initErr = Init()
	})
	return initErr
}

func GetLogger() *zap.Logger { return appLogger }

func GetAuthMiddleware() *middleware.AuthMiddleware { return authMiddleware }

func GetProfileService() profileapp.Service { return profileService }

func GetMealplanService() mealplanapp.Service { return mealplanService }

func GetBillingService() billingapp.Service { return billingService }

func GetPaymentGateway() billinggw.PaymentGateway { return paymentGateway }

// SetBillingService allows tests to inject a stub implementation.
func SetBillingService(s billingapp.Service) { billingService = s }

// SetProfileService allows tests to inject a stub implementation.
func SetProfileService(s profileapp.Service) { profileService = s }

// SetMealplanService allows tests to inject a stub implementation.
func SetMealplanService(s mealplanapp.Service) { mealplanService = s }

// SetPaymentGateway allows tests to inject a stub implementation.
func SetPaymentGateway(g billinggw.PaymentGateway) { paymentGateway = g }
