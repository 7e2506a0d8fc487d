package handlers

import (
	"net/http"

	"pujabook/internal/models"

	"github.com/gin-gonic/gin"
)

// Signup - POST /auth/signup
// Регистрация обычного пользователя
func (h *Handlers) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.services.Auth.Signup(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err, "sign up")
		return
	}

	c.JSON(http.StatusCreated, user)
}

// RequestOTP - POST /auth/request-otp
// Выдать код входа, новый номер регистрируется автоматически
func (h *Handlers) RequestOTP(c *gin.Context) {
	var req models.OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.services.Auth.RequestOTP(c.Request.Context(), req.Mobile)
	if err != nil {
		handleServiceError(c, err, "send OTP")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// VerifyOTP - POST /auth/verify-otp
// Проверить код и выдать токен
func (h *Handlers) VerifyOTP(c *gin.Context) {
	var req models.OTPVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	token, err := h.services.Auth.VerifyOTP(c.Request.Context(), req.Mobile, req.OTPCode)
	if err != nil {
		handleServiceError(c, err, "verify OTP")
		return
	}

	c.JSON(http.StatusOK, token)
}

// AdminLogin - POST /auth/admin-login, POST /auth/token
// Вход администратора, принимает form (OAuth2 password grant) или JSON
func (h *Handlers) AdminLogin(c *gin.Context) {
	var req models.PasswordLoginRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	token, err := h.services.Auth.PasswordLogin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(c, err, "log in")
		return
	}

	c.JSON(http.StatusOK, token)
}
