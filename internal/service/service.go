package service

import (
	"context"

	"pujabook/internal/external"
	"pujabook/internal/logger"
	"pujabook/internal/messaging"
	"pujabook/internal/models"
	"pujabook/internal/notification"
	"pujabook/internal/repository"
	"pujabook/internal/throttle"
)

// PaymentGateway is the slice of the Razorpay client the payment workflow needs
type PaymentGateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*external.RazorpayOrder, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// Notifier sends user-facing messages without blocking the caller
type Notifier interface {
	SendOTP(ctx context.Context, n notification.OTPNotice)
	BookingConfirmed(ctx context.Context, n notification.BookingNotice)
	PaymentConfirmed(ctx context.Context, n notification.PaymentNotice)
}

// PujaIndex is the full-text catalog index. When nil, search falls back to SQL.
type PujaIndex interface {
	IndexPuja(ctx context.Context, puja *models.Puja) error
	DeletePuja(ctx context.Context, id int64) error
	Search(ctx context.Context, query string, from, size int) ([]int64, int64, error)
}

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID int64
	Role   models.Role
}

// CanAccess reports whether the actor may read or act on a resource owned by ownerID
func (a Actor) CanAccess(ownerID int64) bool {
	return a.UserID == ownerID || a.Role.IsStaff()
}

type Deps struct {
	Repos     *repository.Repositories
	Auth      AuthConfig
	Gateway   PaymentGateway
	Notifier  Notifier
	Publisher messaging.Publisher
	Index     PujaIndex
	Limiter   throttle.Limiter
}

type Services struct {
	Auth     *AuthService
	Tokens   *TokenManager
	Users    *UserService
	Catalog  *CatalogService
	Bookings *BookingService
	Payments *PaymentService
}

func NewServices(d Deps) *Services {
	if d.Limiter == nil {
		d.Limiter = throttle.Noop{}
	}

	tokens := NewTokenManager(d.Auth.SecretKey, d.Auth.AccessTokenTTL)
	pricing := NewPricingCalculator(d.Repos.Plans, d.Repos.Chadawas)

	return &Services{
		Auth:     NewAuthService(d.Repos.Users, d.Repos.OTPs, tokens, d.Notifier, d.Limiter, d.Auth),
		Tokens:   tokens,
		Users:    NewUserService(d.Repos.Users),
		Catalog:  NewCatalogService(d.Repos.Pujas, d.Repos.Plans, d.Repos.Chadawas, d.Index),
		Bookings: NewBookingService(d.Repos.Bookings, d.Repos.Pujas, d.Repos.Plans, d.Repos.Chadawas, pricing, d.Notifier, d.Publisher),
		Payments: NewPaymentService(d.Repos.Bookings, d.Repos.Payments, pricing, d.Gateway, d.Notifier, d.Publisher),
	}
}

// publish sends a domain event, failures are only logged
func publish(ctx context.Context, publisher messaging.Publisher, subject string, data any) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(subject, data); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"event_type", subject)
	}
}
