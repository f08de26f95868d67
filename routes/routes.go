package routes

import (
	"net/http"

	"annex-backend/controllers"
	"annex-backend/middleware"

	"github.com/gin-gonic/gin"
)

type Controllers struct {
	Payments      *controllers.PaymentController
	Webhooks      *controllers.WebhookController
	Purchases     *controllers.PurchaseController
	Lessons       *controllers.LessonController
	Notifications *controllers.NotificationController
}

func Register(r *gin.Engine, ctrls Controllers, jwtSecret string) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := middleware.AuthMiddleware(jwtSecret)

	payments := r.Group("/payments")
	payments.Use(auth)
	payments.POST("/initiate-mobile-money", ctrls.Payments.InitiateMobileMoneyPayment)
	payments.POST("/initiate-bank-transfer", ctrls.Payments.InitiateBankTransfer)

	// Gateway webhook: authenticated by its HMAC signature, not by JWT.
	r.POST("/payments/webhook", ctrls.Webhooks.HandlePaymentWebhook)

	purchases := r.Group("/purchases")
	purchases.Use(auth)
	purchases.GET("/mine", ctrls.Purchases.GetMyPurchases)

	r.GET("/lessons", ctrls.Lessons.ListLessons)
	r.GET("/lessons/:id", ctrls.Lessons.GetLesson)

	notifications := r.Group("/notifications")
	notifications.Use(auth)
	notifications.GET("", ctrls.Notifications.ListNotifications)
	notifications.PATCH("/:id/read", ctrls.Notifications.MarkAsRead)
	notifications.PATCH("/read-all", ctrls.Notifications.MarkAllAsRead)
}
