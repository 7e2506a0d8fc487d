package handlers

import (
	"context"
	"net/http"

	"pujabook/internal/models"

	"github.com/gin-gonic/gin"
)

// GetProfile - GET /user/profile
func (h *Handlers) GetProfile(c *gin.Context) {
	user, err := h.services.Users.Get(c.Request.Context(), actor(c).UserID)
	if err != nil {
		handleServiceError(c, err, "get profile")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile - PUT /user/profile
// Частичное обновление: отсутствующие поля не меняются
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var patch models.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.services.Users.UpdateProfile(c.Request.Context(), actor(c).UserID, &patch)
	if err != nil {
		handleServiceError(c, err, "update profile")
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListUsers - GET /admin/users
func (h *Handlers) ListUsers(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}

	users, err := h.services.Users.List(c.Request.Context(), page)
	if err != nil {
		handleServiceError(c, err, "list users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// ApproveUser - POST /admin/users/:id/approve
func (h *Handlers) ApproveUser(c *gin.Context) {
	h.userAction(c, "approve user", h.services.Users.Approve)
}

// DeactivateUser - POST /admin/users/:id/deactivate
func (h *Handlers) DeactivateUser(c *gin.Context) {
	a := actor(c)
	h.userAction(c, "deactivate user", func(ctx context.Context, id int64) (*models.User, error) {
		return h.services.Users.Deactivate(ctx, a, id)
	})
}

// VerifyUserEmail - POST /admin/users/:id/verify-email
func (h *Handlers) VerifyUserEmail(c *gin.Context) {
	h.userAction(c, "verify email", h.services.Users.VerifyEmail)
}

func (h *Handlers) userAction(c *gin.Context, action string, fn func(context.Context, int64) (*models.User, error)) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := fn(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, action)
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateAdmin - POST /admin/users/admins
// Создание администратора, только для super_admin
func (h *Handlers) CreateAdmin(c *gin.Context) {
	var req models.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.services.Users.CreateAdmin(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err, "create admin")
		return
	}
	c.JSON(http.StatusCreated, user)
}
