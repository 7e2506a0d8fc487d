package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pujabook/internal/database"
	apperr "pujabook/internal/errors"
	"pujabook/internal/middleware"
	"pujabook/internal/models"
	"pujabook/internal/repository"
	"pujabook/internal/service"
	"pujabook/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

type testServer struct {
	router   *gin.Engine
	repos    *repository.Repositories
	services *service.Services
}

func setupRouter(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validation.RegisterBindings())

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.Open(sqlite.Open(dsn))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { db.Close() })

	repos := repository.NewRepositories(db)
	services := service.NewServices(service.Deps{
		Repos: repos,
		Auth: service.AuthConfig{
			SecretKey:      "test-secret-key",
			Algorithm:      "HS256",
			AccessTokenTTL: 30 * time.Minute,
			OTPTTL:         10 * time.Minute,
			ExposeOTP:      true,
		},
	})
	h := NewHandlers(services, db, "Puja Booking API", "test")

	r := gin.New()
	r.GET("/health", h.Health)
	r.POST("/auth/request-otp", h.RequestOTP)
	r.POST("/auth/verify-otp", h.VerifyOTP)
	r.GET("/pujas", h.ListPujas)
	r.GET("/pujas/search", h.SearchPujas)
	r.GET("/pujas/:id", h.GetPuja)

	authed := r.Group("")
	authed.Use(middleware.BearerAuth(services.Auth))
	{
		authed.POST("/bookings", h.CreateBooking)
		authed.GET("/bookings/:id", h.GetBooking)
		authed.POST("/bookings/:id/cancel", h.CancelBooking)
		authed.POST("/admin/pujas", h.CreatePuja)
		authed.POST("/admin/plans", h.CreatePlan)
		authed.DELETE("/admin/pujas/:id", h.DeletePuja)
	}

	return &testServer{router: r, repos: repos, services: services}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) tokenFor(t *testing.T, mobile string, role models.Role) string {
	t.Helper()

	user := &models.User{Name: "User " + mobile, Mobile: mobile, Role: role, IsActive: true}
	require.NoError(t, s.repos.Users.Create(context.Background(), user))
	token, err := s.services.Tokens.Issue(user)
	require.NoError(t, err)
	return token
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestHandleServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"unauthorized", apperr.New(apperr.ErrUnauthorized, "Invalid credentials"), http.StatusUnauthorized, "Invalid credentials"},
		{"forbidden", apperr.New(apperr.ErrForbidden, "Not enough permissions"), http.StatusForbidden, "Not enough permissions"},
		{"not found", apperr.New(apperr.ErrNotFound, "Booking not found"), http.StatusNotFound, "Booking not found"},
		{"invalid input", apperr.New(apperr.ErrInvalidInput, "Invalid OTP"), http.StatusBadRequest, "Invalid OTP"},
		{"precondition", apperr.New(apperr.ErrPrecondition, "Booking cannot be cancelled"), http.StatusBadRequest, "Booking cannot be cancelled"},
		{"conflict", apperr.New(apperr.ErrConflict, "Email already registered"), http.StatusBadRequest, "Email already registered"},
		{"rate limited", apperr.New(apperr.ErrRateLimited, "Too many OTP requests"), http.StatusTooManyRequests, "Too many OTP requests"},
		{"gateway", fmt.Errorf("razorpay: %w", apperr.ErrGateway), http.StatusBadGateway, "razorpay: external service failure"},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, "Failed to create booking"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)

			handleServiceError(c, tt.err, "create booking")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantError, errorBody(t, w))
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestPathAndPageValidation(t *testing.T) {
	s := setupRouter(t)

	w := s.do(t, http.MethodGet, "/pujas/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid id", errorBody(t, w))

	w = s.do(t, http.MethodGet, "/pujas/0", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Тест с некорректным limit
	w = s.do(t, http.MethodGet, "/pujas?limit=0", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/pujas?limit=101", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/pujas?skip=-1", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/pujas", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestHealth(t *testing.T) {
	s := setupRouter(t)

	w := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
}

func TestOTPLoginFlow(t *testing.T) {
	s := setupRouter(t)

	w := s.do(t, http.MethodPost, "/auth/request-otp", models.OTPRequest{Mobile: "12345"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/auth/request-otp", models.OTPRequest{Mobile: "9876543210"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var otp models.OTPRequestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &otp))
	assert.Equal(t, "OTP sent successfully", otp.Message)
	require.Len(t, otp.DevOTP, 6)

	w = s.do(t, http.MethodPost, "/auth/verify-otp", models.OTPVerifyRequest{Mobile: "9876543210", OTPCode: "000000x"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/auth/verify-otp", models.OTPVerifyRequest{Mobile: "9876543210", OTPCode: otp.DevOTP}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var token models.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	assert.Equal(t, "bearer", token.TokenType)
	assert.NotEmpty(t, token.AccessToken)
}

func TestCreateAndCancelBooking(t *testing.T) {
	s := setupRouter(t)
	token := s.tokenFor(t, "9876543210", models.RoleUser)
	other := s.tokenFor(t, "9000000001", models.RoleUser)

	w := s.do(t, http.MethodPost, "/bookings", models.CreateBookingRequest{}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/bookings", models.CreateBookingRequest{}, token)
	require.Equal(t, http.StatusCreated, w.Code)

	var booking models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booking))
	assert.Equal(t, models.BookingStatusPending, booking.Status)

	path := fmt.Sprintf("/bookings/%d", booking.ID)
	w = s.do(t, http.MethodGet, path, nil, other)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, path+"/cancel", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booking))
	assert.Equal(t, models.BookingStatusCancelled, booking.Status)

	w = s.do(t, http.MethodPost, path+"/cancel", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Booking cannot be cancelled", errorBody(t, w))

	w = s.do(t, http.MethodGet, "/bookings/999", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogAdmin(t *testing.T) {
	s := setupRouter(t)
	token := s.tokenFor(t, "9000000003", models.RoleAdmin)

	w := s.do(t, http.MethodPost, "/admin/pujas", map[string]any{"description": "no name"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/admin/pujas", models.PujaInput{Name: "Ganesh Puja"}, token)
	require.Equal(t, http.StatusCreated, w.Code)

	var puja models.Puja
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &puja))
	assert.Equal(t, "Ganesh Puja", puja.Name)

	w = s.do(t, http.MethodPost, "/admin/plans", models.PlanInput{Name: "Basic", ActualPrice: decimal.Zero}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/pujas/search?q=ganesh", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var result models.PujaSearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, int64(1), result.Total)

	path := fmt.Sprintf("/admin/pujas/%d", puja.ID)
	w = s.do(t, http.MethodDelete, path, nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodDelete, path, nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Puja not found", errorBody(t, w))
}
