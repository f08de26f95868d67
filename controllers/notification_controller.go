package controllers

import (
	"errors"
	"net/http"

	"annex-backend/middleware"
	"annex-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationController struct {
	Notifications repository.NotificationRepository
	Logger        *zap.Logger
}

func NewNotificationController(notifications repository.NotificationRepository, logger *zap.Logger) *NotificationController {
	return &NotificationController{Notifications: notifications, Logger: logger}
}

func (nc *NotificationController) ListNotifications(c *gin.Context) {
	userID, err := uuid.Parse(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	notifications, err := nc.Notifications.ListByUser(c.Request.Context(), userID)
	if err != nil {
		nc.Logger.Error("failed to list notifications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

func (nc *NotificationController) MarkAsRead(c *gin.Context) {
	userID, err := uuid.Parse(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	notification, err := nc.Notifications.MarkAsRead(c.Request.Context(), id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		nc.Logger.Error("failed to mark notification read", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update notification"})
		return
	}

	c.JSON(http.StatusOK, notification)
}

func (nc *NotificationController) MarkAllAsRead(c *gin.Context) {
	userID, err := uuid.Parse(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	affected, err := nc.Notifications.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		nc.Logger.Error("failed to mark all notifications read", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"affected": affected})
}
