package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"pujabook/internal/database"
	"pujabook/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func setupRepos(t *testing.T) *Repositories {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.Open(sqlite.Open(dsn))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { db.Close() })

	return NewRepositories(db)
}

func createUser(t *testing.T, repos *Repositories, mobile string) *models.User {
	t.Helper()

	user := &models.User{Name: "User " + mobile, Mobile: mobile, Role: models.RoleUser, IsActive: true}
	require.NoError(t, repos.Users.Create(context.Background(), user))
	return user
}

func TestOTPReplaceAndConsume(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	user := createUser(t, repos, "9876543210")
	now := time.Now().UTC()

	require.NoError(t, repos.OTPs.Replace(ctx, &models.OTPLogin{UserID: user.ID, OTPCode: "111111", ExpiresAt: now.Add(10 * time.Minute)}))
	require.NoError(t, repos.OTPs.Replace(ctx, &models.OTPLogin{UserID: user.ID, OTPCode: "222222", ExpiresAt: now.Add(10 * time.Minute)}))

	count, err := repos.OTPs.CountByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// старый код удален вместе с записью
	ok, err := repos.OTPs.Consume(ctx, user.ID, "111111", now)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repos.OTPs.Consume(ctx, user.ID, "222222", now.Add(11*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repos.OTPs.Consume(ctx, user.ID, "222222", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repos.OTPs.Consume(ctx, user.ID, "222222", now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPaymentUpsertAndComplete(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	user := createUser(t, repos, "9876543210")

	booking := &models.Booking{UserID: user.ID, BookingDate: time.Now().UTC(), Status: models.BookingStatusPending}
	require.NoError(t, repos.Bookings.Create(ctx, booking, nil))

	amount := decimal.NewFromInt(1300)
	payment, err := repos.Payments.UpsertOrder(ctx, booking.ID, "order_1", amount, "INR")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCreated, payment.Status)

	failed, err := repos.Payments.MarkFailed(ctx, "order_1", "pay_1", "bad")
	require.NoError(t, err)
	assert.True(t, failed)

	completed, err := repos.Payments.CompleteVerification(ctx, "order_1", "pay_1", "sig")
	require.NoError(t, err)
	assert.False(t, completed)

	payment, err = repos.Payments.UpsertOrder(ctx, booking.ID, "order_2", amount, "INR")
	require.NoError(t, err)
	assert.Equal(t, "order_2", payment.RazorpayOrderID)
	assert.Equal(t, models.PaymentStatusCreated, payment.Status)
	assert.Nil(t, payment.RazorpayPaymentID)

	completed, err = repos.Payments.CompleteVerification(ctx, "order_2", "pay_2", "sig")
	require.NoError(t, err)
	assert.True(t, completed)

	completed, err = repos.Payments.CompleteVerification(ctx, "order_2", "pay_2", "sig")
	require.NoError(t, err)
	assert.False(t, completed)

	confirmed, err := repos.Bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, confirmed.Status)

	_, err = repos.Payments.UpsertOrder(ctx, booking.ID, "order_3", amount, "INR")
	assert.ErrorIs(t, err, ErrPaymentCompleted)

	byOrder, err := repos.Payments.GetByOrderID(ctx, "order_1")
	require.NoError(t, err)
	assert.Nil(t, byOrder)

	mine, err := repos.Payments.ListByUser(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestCompleteVerificationOnCancelledBooking(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	user := createUser(t, repos, "9876543210")

	booking := &models.Booking{UserID: user.ID, BookingDate: time.Now().UTC(), Status: models.BookingStatusPending}
	require.NoError(t, repos.Bookings.Create(ctx, booking, nil))

	_, err := repos.Payments.UpsertOrder(ctx, booking.ID, "order_1", decimal.NewFromInt(1300), "INR")
	require.NoError(t, err)

	ok, err := repos.Bookings.TransitionStatus(ctx, booking.ID,
		[]models.BookingStatus{models.BookingStatusPending}, models.BookingStatusCancelled)
	require.NoError(t, err)
	require.True(t, ok)

	completed, err := repos.Payments.CompleteVerification(ctx, "order_1", "pay_1", "sig")
	require.ErrorIs(t, err, ErrBookingNotPayable)
	assert.False(t, completed)

	// откат: платеж остается created
	payment, err := repos.Payments.GetByOrderID(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCreated, payment.Status)
	assert.Nil(t, payment.RazorpayPaymentID)

	cancelled, err := repos.Bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
}
