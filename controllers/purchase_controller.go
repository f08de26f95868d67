package controllers

import (
	"net/http"

	"annex-backend/middleware"
	"annex-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PurchaseController struct {
	Purchases repository.PurchaseRepository
	Logger    *zap.Logger
}

func NewPurchaseController(purchases repository.PurchaseRepository, logger *zap.Logger) *PurchaseController {
	return &PurchaseController{Purchases: purchases, Logger: logger}
}

// GetMyPurchases returns the caller's purchases with their settlement status
// verbatim so clients can poll pending ones.
func (pc *PurchaseController) GetMyPurchases(c *gin.Context) {
	studentID, err := uuid.Parse(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	purchases, err := pc.Purchases.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		pc.Logger.Error("failed to list purchases", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list purchases"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchases": purchases})
}
