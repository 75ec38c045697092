package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rvalette/mealmind/api/middleware"
	profileapp "github.com/rvalette/mealmind/api/services/profile/app"
)

type profileHandler struct {
	svc    profileapp.Service
	logger *zap.Logger
}

func newProfileHandler(svc profileapp.Service, logger *zap.Logger) *profileHandler {
	return &profileHandler{svc: svc, logger: logger}
}

// CreateProfile handles POST /api/create-profile. The body is ignored; the
// caller identity comes from the auth middleware.
func (h *profileHandler) CreateProfile(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found."})
		return
	}

	created, err := h.svc.EnsureProfile(c.Request.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, profileapp.ErrNoEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User does not have an email address."})
			return
		}
		h.logger.Error("create profile failed", zap.String("userId", identity.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error."})
		return
	}

	if created {
		c.JSON(http.StatusCreated, gin.H{"message": "Profile created successfully."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile already exists."})
}

// SubscriptionStatus handles GET /api/profile/subscription-status.
func (h *profileHandler) SubscriptionStatus(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found."})
		return
	}

	status, err := h.svc.SubscriptionStatus(c.Request.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, profileapp.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No profile found."})
			return
		}
		h.logger.Error("subscription status failed", zap.String("userId", identity.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": status})
}
