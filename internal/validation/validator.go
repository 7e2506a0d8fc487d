package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"pujabook/internal/models"
)

// SmokeChecker прогоняет основной пользовательский сценарий против запущенного API
type SmokeChecker struct {
	baseURL string
	mobile  string
	client  *http.Client
}

// NewSmokeChecker создает проверку. mobile - номер тестового пользователя.
func NewSmokeChecker(baseURL, mobile string) *SmokeChecker {
	return &SmokeChecker{
		baseURL: baseURL,
		mobile:  mobile,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Run checks health, the public catalog, the OTP login and the booking endpoints.
// The OTP step needs the server to echo codes (OTP_EXPOSE_CODE), otherwise it stops after request-otp.
func (v *SmokeChecker) Run(ctx context.Context) error {
	slog.Info("Starting API smoke check", "url", v.baseURL)

	if err := v.expectStatus(ctx, http.MethodGet, "/health", nil, "", http.StatusOK, nil); err != nil {
		return err
	}

	var pujas []models.Puja
	if err := v.expectStatus(ctx, http.MethodGet, "/pujas?limit=5", nil, "", http.StatusOK, &pujas); err != nil {
		return err
	}
	slog.Info("Catalog reachable", "pujas", len(pujas))

	var otp models.OTPRequestResponse
	if err := v.expectStatus(ctx, http.MethodPost, "/auth/request-otp", models.OTPRequest{Mobile: v.mobile}, "", http.StatusOK, &otp); err != nil {
		return err
	}
	if otp.DevOTP == "" {
		slog.Warn("Server does not expose OTP codes, skipping authenticated checks")
		return nil
	}

	var token models.TokenResponse
	if err := v.expectStatus(ctx, http.MethodPost, "/auth/verify-otp",
		models.OTPVerifyRequest{Mobile: v.mobile, OTPCode: otp.DevOTP}, "", http.StatusOK, &token); err != nil {
		return err
	}
	if token.AccessToken == "" {
		return fmt.Errorf("POST /auth/verify-otp: empty access token")
	}

	if err := v.expectStatus(ctx, http.MethodGet, "/user/profile", nil, token.AccessToken, http.StatusOK, nil); err != nil {
		return err
	}

	req := models.CreateBookingRequest{}
	if len(pujas) > 0 {
		req.PujaID = &pujas[0].ID
	}
	var booking models.Booking
	if err := v.expectStatus(ctx, http.MethodPost, "/bookings", req, token.AccessToken, http.StatusCreated, &booking); err != nil {
		return err
	}
	if booking.ID == 0 || booking.Status != models.BookingStatusPending {
		return fmt.Errorf("POST /bookings: unexpected booking %d in status %q", booking.ID, booking.Status)
	}

	path := "/bookings/" + strconv.FormatInt(booking.ID, 10)
	if err := v.expectStatus(ctx, http.MethodGet, path, nil, token.AccessToken, http.StatusOK, nil); err != nil {
		return err
	}
	if err := v.expectStatus(ctx, http.MethodPost, path+"/cancel", nil, token.AccessToken, http.StatusOK, nil); err != nil {
		return err
	}
	if err := v.expectStatus(ctx, http.MethodPost, path+"/cancel", nil, token.AccessToken, http.StatusBadRequest, nil); err != nil {
		return err
	}

	slog.Info("API smoke check passed")
	return nil
}

func (v *SmokeChecker) expectStatus(ctx context.Context, method, path string, body any, token string, want int, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, v.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: expected %d, got %d: %s", method, path, want, resp.StatusCode, data)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
		}
	}

	slog.Info("Endpoint ok", "method", method, "path", path, "status", resp.StatusCode)
	return nil
}
