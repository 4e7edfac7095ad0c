package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/souschef-app/souschef-api/internal/logger"
	"github.com/souschef-app/souschef-api/internal/service"
	"github.com/souschef-app/souschef-api/internal/util"
	"go.uber.org/zap"
)

// SubscriptionHandler handles subscription-related requests.
type SubscriptionHandler struct {
	Service *service.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{Service: subService}
}

// GetSubscription handles GET /v1/subscription
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	user, err := util.GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.Service.GetSubscription(user.ID)
	if err != nil {
		logger.Get().Error("failed to get subscription", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// PurchaseSubscription handles POST /v1/subscription/purchase
func (h *SubscriptionHandler) PurchaseSubscription(c *gin.Context) {
	user, err := util.GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.Service.Purchase(user.ID)
	if err != nil {
		logger.Get().Error("failed to purchase subscription", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to purchase subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub, "message": "Subscription purchased successfully"})
}

// RestoreSubscription handles POST /v1/subscription/restore
func (h *SubscriptionHandler) RestoreSubscription(c *gin.Context) {
	user, err := util.GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.Service.Restore(user.ID)
	if err != nil {
		logger.Get().Error("failed to restore subscription", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restore subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub, "message": "Subscription restored"})
}
