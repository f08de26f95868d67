package controllers

import (
	"errors"
	"net/http"

	"annex-backend/middleware"
	"annex-backend/repository"
	"annex-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentController struct {
	Payments *services.PaymentService
	Logger   *zap.Logger
}

func NewPaymentController(payments *services.PaymentService, logger *zap.Logger) *PaymentController {
	return &PaymentController{Payments: payments, Logger: logger}
}

// InitiateMobileMoneyPayment starts a mobile money charge for a lesson and
// relays the gateway's continuation data back to the client.
func (pc *PaymentController) InitiateMobileMoneyPayment(c *gin.Context) {
	var req services.MobileMoneyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	studentID, ok := pc.currentStudent(c)
	if !ok {
		return
	}

	resp, err := pc.Payments.InitiateMobileMoneyPayment(c.Request.Context(), studentID, req)
	if err != nil {
		pc.respondInitiationError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", resp)
}

// InitiateBankTransfer starts a bank transfer charge; the gateway response
// contains the bank details the student pays into.
func (pc *PaymentController) InitiateBankTransfer(c *gin.Context) {
	var req services.BankTransferPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	studentID, ok := pc.currentStudent(c)
	if !ok {
		return
	}

	resp, err := pc.Payments.InitiateBankTransferPayment(c.Request.Context(), studentID, req)
	if err != nil {
		pc.respondInitiationError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", resp)
}

func (pc *PaymentController) currentStudent(c *gin.Context) (uuid.UUID, bool) {
	studentID, err := uuid.Parse(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return uuid.Nil, false
	}
	return studentID, true
}

func (pc *PaymentController) respondInitiationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrLessonNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "lesson not found"})
	case errors.Is(err, services.ErrInvalidProvider):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mobile money provider"})
	case errors.Is(err, services.ErrGatewayUnavailable):
		// The pending purchase stays on record; the client may retry.
		pc.Logger.Warn("gateway unavailable during initiation", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payment gateway unavailable, try again"})
	default:
		pc.Logger.Error("payment initiation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initiate payment"})
	}
}
