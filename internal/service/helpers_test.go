package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"pujabook/internal/database"
	"pujabook/internal/external"
	"pujabook/internal/models"
	"pujabook/internal/notification"
	"pujabook/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

const testGatewaySecret = "test_secret"

type stubGateway struct {
	mu     sync.Mutex
	orders int
	fail   bool
}

func (g *stubGateway) KeyID() string { return "rzp_test_key" }

func (g *stubGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*external.RazorpayOrder, error) {
	if g.fail {
		return nil, fmt.Errorf("gateway down")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders++
	return &external.RazorpayOrder{
		ID:       fmt.Sprintf("order_%d", g.orders),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (g *stubGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return external.Sign(testGatewaySecret, orderID, paymentID) == signature
}

type recordingNotifier struct {
	mu       sync.Mutex
	otps     []notification.OTPNotice
	bookings []notification.BookingNotice
	payments []notification.PaymentNotice
}

func (n *recordingNotifier) SendOTP(_ context.Context, notice notification.OTPNotice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.otps = append(n.otps, notice)
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, notice notification.BookingNotice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bookings = append(n.bookings, notice)
}

func (n *recordingNotifier) PaymentConfirmed(_ context.Context, notice notification.PaymentNotice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payments = append(n.payments, notice)
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) Publish(subject string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type testEnv struct {
	repos     *repository.Repositories
	services  *Services
	gateway   *stubGateway
	notifier  *recordingNotifier
	publisher *recordingPublisher
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.Open(sqlite.Open(dsn))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate())

	t.Cleanup(func() { db.Close() })
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repos := repository.NewRepositories(newTestDB(t))
	env := &testEnv{
		repos:     repos,
		gateway:   &stubGateway{},
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
	}
	env.services = NewServices(Deps{
		Repos: repos,
		Auth: AuthConfig{
			SecretKey:      "test-secret-key",
			Algorithm:      "HS256",
			AccessTokenTTL: 30 * time.Minute,
			OTPTTL:         10 * time.Minute,
			ExposeOTP:      true,
		},
		Gateway:   env.gateway,
		Notifier:  env.notifier,
		Publisher: env.publisher,
	})
	return env
}

func (e *testEnv) createUser(t *testing.T, mobile string, role models.Role) *models.User {
	t.Helper()

	email := mobile + "@example.com"
	user := &models.User{
		Name:     "User " + mobile,
		Email:    &email,
		Mobile:   mobile,
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, e.repos.Users.Create(context.Background(), user))
	return user
}

func (e *testEnv) createPlan(t *testing.T, actual, discounted int64) *models.Plan {
	t.Helper()

	plan := &models.Plan{Name: "Basic", ActualPrice: decimal.NewFromInt(actual)}
	if discounted > 0 {
		plan.DiscountedPrice = decimal.NewNullDecimal(decimal.NewFromInt(discounted))
	}
	require.NoError(t, e.repos.Plans.Create(context.Background(), plan))
	return plan
}

func (e *testEnv) createChadawa(t *testing.T, name string, price int64) *models.Chadawa {
	t.Helper()

	chadawa := &models.Chadawa{Name: name, Price: decimal.NewFromInt(price)}
	require.NoError(t, e.repos.Chadawas.Create(context.Background(), chadawa))
	return chadawa
}

func (e *testEnv) createPuja(t *testing.T, name string) *models.Puja {
	t.Helper()

	puja := &models.Puja{Name: name}
	require.NoError(t, e.repos.Pujas.Create(context.Background(), puja))
	return puja
}

func actorOf(user *models.User) Actor {
	return Actor{UserID: user.ID, Role: user.Role}
}
