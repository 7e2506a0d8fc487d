package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	apperr "pujabook/internal/errors"
	"pujabook/internal/logger"
	"pujabook/internal/metrics"
	"pujabook/internal/models"
	"pujabook/internal/notification"
	"pujabook/internal/repository"
	"pujabook/internal/throttle"

	"golang.org/x/crypto/bcrypt"
)

const (
	msgInvalidCredentials = "Could not validate credentials"
	msgInvalidOTP         = "Invalid OTP or OTP expired"
	msgBadPassword        = "Incorrect email or password"
	msgAdminDeactivated   = "Your admin account is deactivated. Contact super admin."
)

// missingUserHash сравнивается с паролем, когда email не найден, чтобы время ответа не зависело от наличия аккаунта
var missingUserHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("missing-user-placeholder"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("failed to prepare placeholder hash: %v", err))
	}
	return hash
})

type AuthConfig struct {
	SecretKey      string
	Algorithm      string
	AccessTokenTTL time.Duration
	OTPTTL         time.Duration
	ExposeOTP      bool
}

type AuthService struct {
	users    *repository.UserRepository
	otps     *repository.OTPRepository
	tokens   *TokenManager
	notifier Notifier
	limiter  throttle.Limiter
	cfg      AuthConfig
	now      func() time.Time
}

func NewAuthService(users *repository.UserRepository, otps *repository.OTPRepository, tokens *TokenManager, notifier Notifier, limiter throttle.Limiter, cfg AuthConfig) *AuthService {
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 10 * time.Minute
	}
	return &AuthService{
		users:    users,
		otps:     otps,
		tokens:   tokens,
		notifier: notifier,
		limiter:  limiter,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Signup registers an ordinary user. Staff roles cannot be self-assigned.
func (s *AuthService) Signup(ctx context.Context, req *models.SignupRequest) (*models.User, error) {
	if req.Role != nil {
		role, err := models.ParseRole(*req.Role)
		if err != nil {
			return nil, apperr.New(apperr.ErrInvalidInput, "Invalid role")
		}
		if role.IsStaff() {
			return nil, apperr.New(apperr.ErrForbidden, "Admin users cannot be created through signup")
		}
	}

	existing, err := s.users.GetByMobile(ctx, req.Mobile)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if existing != nil {
		return nil, apperr.New(apperr.ErrConflict, "Mobile number already registered")
	}

	email := normalizeEmail(req.Email)
	if email != nil {
		existing, err := s.users.GetByEmail(ctx, *email)
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if existing != nil {
			return nil, apperr.New(apperr.ErrConflict, "Email already registered")
		}
	}

	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Mobile:   req.Mobile,
		Role:     models.RoleUser,
		IsActive: false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.WithContext(ctx).Info("User registered", "user_id", user.ID)
	return user, nil
}

// RequestOTP выдает новый код, предыдущие коды пользователя удаляются.
// Новый номер автоматически регистрируется как обычный пользователь.
func (s *AuthService) RequestOTP(ctx context.Context, mobile string) (*models.OTPRequestResponse, error) {
	allowed, err := s.limiter.Allow(ctx, mobile)
	if err != nil {
		logger.WithContext(ctx).Error("OTP throttle unavailable, allowing request", "error", err)
		allowed = true
	}
	if !allowed {
		metrics.OTPRequestsTotal.WithLabelValues("throttled").Inc()
		return nil, apperr.New(apperr.ErrRateLimited, "Too many OTP requests, try again later")
	}

	user, err := s.findOrCreateByMobile(ctx, mobile)
	if err != nil {
		return nil, err
	}

	if user.Role.IsStaff() {
		metrics.OTPRequestsTotal.WithLabelValues("rejected").Inc()
		return nil, apperr.New(apperr.ErrForbidden, "Admin users must login with email and password")
	}

	code, err := generateOTP()
	if err != nil {
		return nil, fmt.Errorf("failed to generate otp: %w", err)
	}

	otp := &models.OTPLogin{
		UserID:    user.ID,
		OTPCode:   code,
		ExpiresAt: s.now().Add(s.cfg.OTPTTL),
	}
	if err := s.otps.Replace(ctx, otp); err != nil {
		return nil, fmt.Errorf("failed to store otp: %w", err)
	}

	if s.notifier != nil {
		s.notifier.SendOTP(ctx, notification.OTPNotice{
			Mobile: user.Mobile,
			Email:  user.Email,
			Name:   user.Name,
			Code:   code,
			TTL:    s.cfg.OTPTTL,
		})
	}

	metrics.OTPRequestsTotal.WithLabelValues("sent").Inc()

	resp := &models.OTPRequestResponse{Message: "OTP sent successfully"}
	if s.cfg.ExposeOTP {
		resp.DevOTP = code
	}
	return resp, nil
}

func (s *AuthService) findOrCreateByMobile(ctx context.Context, mobile string) (*models.User, error) {
	user, err := s.users.GetByMobile(ctx, mobile)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	user = &models.User{
		Name:   "User_" + mobile,
		Mobile: mobile,
		Role:   models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// параллельный запрос мог создать пользователя раньше нас
		existing, getErr := s.users.GetByMobile(ctx, mobile)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.WithContext(ctx).Info("User created from OTP request", "user_id", user.ID)
	return user, nil
}

// VerifyOTP consumes a matching unexpired code and issues an access token
func (s *AuthService) VerifyOTP(ctx context.Context, mobile, code string) (*models.TokenResponse, error) {
	user, err := s.users.GetByMobile(ctx, mobile)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		metrics.LoginsTotal.WithLabelValues("otp", "failed").Inc()
		return nil, apperr.New(apperr.ErrInvalidInput, msgInvalidOTP)
	}
	if user.Role.IsStaff() {
		metrics.LoginsTotal.WithLabelValues("otp", "rejected").Inc()
		return nil, apperr.New(apperr.ErrForbidden, "Admin users must login with email and password")
	}

	ok, err := s.otps.Consume(ctx, user.ID, strings.TrimSpace(code), s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to verify otp: %w", err)
	}
	if !ok {
		metrics.LoginsTotal.WithLabelValues("otp", "failed").Inc()
		return nil, apperr.New(apperr.ErrInvalidInput, msgInvalidOTP)
	}

	metrics.LoginsTotal.WithLabelValues("otp", "success").Inc()
	return s.issue(user)
}

// PasswordLogin is the admin entry point; username is the account email
func (s *AuthService) PasswordLogin(ctx context.Context, username, password string) (*models.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(username))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	hash := missingUserHash()
	if user != nil && user.PasswordHash != nil {
		hash = []byte(*user.PasswordHash)
	}
	matched := bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
	if user == nil || user.PasswordHash == nil || !matched {
		metrics.LoginsTotal.WithLabelValues("password", "failed").Inc()
		return nil, apperr.New(apperr.ErrUnauthorized, msgBadPassword)
	}

	if !user.Role.IsStaff() {
		metrics.LoginsTotal.WithLabelValues("password", "rejected").Inc()
		return nil, apperr.New(apperr.ErrForbidden, "This login is only for admin users. Normal users should use OTP login.")
	}
	if !user.IsActive {
		metrics.LoginsTotal.WithLabelValues("password", "rejected").Inc()
		return nil, apperr.New(apperr.ErrForbidden, msgAdminDeactivated)
	}

	metrics.LoginsTotal.WithLabelValues("password", "success").Inc()
	return s.issue(user)
}

// Authenticate resolves a bearer token to its user. Every failure collapses
// into the same unauthorized error. Deactivated staff lose their tokens at once;
// ordinary users are not gated on is_active because OTP sign-ups start inactive.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperr.New(apperr.ErrUnauthorized, msgInvalidCredentials)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.Role.Valid() {
		return nil, apperr.New(apperr.ErrUnauthorized, msgInvalidCredentials)
	}
	if user.Role.IsStaff() && !user.IsActive {
		return nil, apperr.New(apperr.ErrUnauthorized, msgInvalidCredentials)
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*models.TokenResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &models.TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

// HashPassword returns the bcrypt hash stored for staff accounts
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

var otpUpperBound = big.NewInt(1_000_000)

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpUpperBound)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.ToLower(strings.TrimSpace(*email))
	if e == "" {
		return nil
	}
	return &e
}
