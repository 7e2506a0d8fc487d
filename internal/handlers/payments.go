package handlers

import (
	"net/http"

	"pujabook/internal/models"

	"github.com/gin-gonic/gin"
)

// CreatePaymentOrder - POST /payments/create-order/:booking_id
// Создать заказ в платежном шлюзе на сумму бронирования
func (h *Handlers) CreatePaymentOrder(c *gin.Context) {
	bookingID, ok := pathID(c, "booking_id")
	if !ok {
		return
	}

	order, err := h.services.Payments.CreateOrder(c.Request.Context(), actor(c), bookingID)
	if err != nil {
		handleServiceError(c, err, "create payment order")
		return
	}

	c.JSON(http.StatusOK, order)
}

// VerifyPayment - POST /payments/verify
// Проверка подписи; успешная оплата подтверждает бронирование
func (h *Handlers) VerifyPayment(c *gin.Context) {
	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	payment, err := h.services.Payments.Verify(c.Request.Context(), actor(c), &req)
	if err != nil {
		handleServiceError(c, err, "verify payment")
		return
	}

	c.JSON(http.StatusOK, payment)
}

// PaymentStatus - GET /payments/status/:booking_id
func (h *Handlers) PaymentStatus(c *gin.Context) {
	bookingID, ok := pathID(c, "booking_id")
	if !ok {
		return
	}

	payment, err := h.services.Payments.StatusForBooking(c.Request.Context(), actor(c), bookingID)
	if err != nil {
		handleServiceError(c, err, "get payment status")
		return
	}

	c.JSON(http.StatusOK, payment)
}

// ListUserPayments - GET /payments/user
func (h *Handlers) ListUserPayments(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}

	payments, err := h.services.Payments.ListForUser(c.Request.Context(), actor(c), page)
	if err != nil {
		handleServiceError(c, err, "list payments")
		return
	}

	c.JSON(http.StatusOK, payments)
}

// ListAllPayments - GET /payments/admin, GET /admin/payments
func (h *Handlers) ListAllPayments(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}

	var status *models.PaymentStatus
	if raw := c.Query("status"); raw != "" {
		s := models.PaymentStatus(raw)
		if !s.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		status = &s
	}

	payments, err := h.services.Payments.ListAll(c.Request.Context(), status, page)
	if err != nil {
		handleServiceError(c, err, "list payments")
		return
	}

	c.JSON(http.StatusOK, payments)
}
