package handlers

import (
	"net/http"

	"pujabook/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateBooking - POST /bookings
// Создать бронирование для текущего пользователя
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	booking, err := h.services.Bookings.Create(c.Request.Context(), actor(c), &req)
	if err != nil {
		handleServiceError(c, err, "create booking")
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// GetBooking - GET /bookings/:id
// Владелец или администратор
func (h *Handlers) GetBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	booking, err := h.services.Bookings.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		handleServiceError(c, err, "get booking")
		return
	}

	c.JSON(http.StatusOK, booking)
}

// ListUserBookings - GET /user/bookings
func (h *Handlers) ListUserBookings(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}

	bookings, err := h.services.Bookings.ListForUser(c.Request.Context(), actor(c), page)
	if err != nil {
		handleServiceError(c, err, "list bookings")
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// CancelBooking - POST /bookings/:id/cancel
// Отменить можно только pending или confirmed
func (h *Handlers) CancelBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	booking, err := h.services.Bookings.Cancel(c.Request.Context(), actor(c), id)
	if err != nil {
		handleServiceError(c, err, "cancel booking")
		return
	}

	c.JSON(http.StatusOK, booking)
}

// AttachChadawa - POST /bookings/:id/chadawas
// Добавить чадаву к бронированию или обновить заметку
func (h *Handlers) AttachChadawa(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var sel models.ChadawaSelection
	if err := c.ShouldBindJSON(&sel); err != nil {
		badRequest(c, err)
		return
	}

	booking, err := h.services.Bookings.AttachChadawa(c.Request.Context(), actor(c), id, &sel)
	if err != nil {
		handleServiceError(c, err, "attach chadawa")
		return
	}

	c.JSON(http.StatusOK, booking)
}

// DetachChadawa - DELETE /bookings/:id/chadawas/:chadawa_id
func (h *Handlers) DetachChadawa(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	chadawaID, ok := pathID(c, "chadawa_id")
	if !ok {
		return
	}

	booking, err := h.services.Bookings.DetachChadawa(c.Request.Context(), actor(c), id, chadawaID)
	if err != nil {
		handleServiceError(c, err, "detach chadawa")
		return
	}

	c.JSON(http.StatusOK, booking)
}

// ListAllBookings - GET /admin/bookings?status=
func (h *Handlers) ListAllBookings(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}

	var status *models.BookingStatus
	if raw := c.Query("status"); raw != "" {
		s := models.BookingStatus(raw)
		if !s.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		status = &s
	}

	bookings, err := h.services.Bookings.ListAll(c.Request.Context(), status, page)
	if err != nil {
		handleServiceError(c, err, "list bookings")
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// UpdateBooking - PUT /admin/bookings/:id
// Смена статуса по правилам переходов и ссылка на трансляцию
func (h *Handlers) UpdateBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch models.BookingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	booking, err := h.services.Bookings.Update(c.Request.Context(), actor(c), id, &patch)
	if err != nil {
		handleServiceError(c, err, "update booking")
		return
	}

	c.JSON(http.StatusOK, booking)
}
