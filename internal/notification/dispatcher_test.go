package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	to, subject, body string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendHTML(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{to: to, subject: subject, body: body})
	return f.err
}

func (f *fakeSender) SendSMS(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{to: to, body: body})
	return f.err
}

func TestSendOTP(t *testing.T) {
	email := &fakeSender{}
	sms := &fakeSender{}
	d := NewDispatcher(email, sms)

	address := "asha@example.com"
	d.SendOTP(context.Background(), OTPNotice{
		Mobile: "9876543210",
		Email:  &address,
		Name:   "Asha",
		Code:   "123456",
		TTL:    10 * time.Minute,
	})
	d.Wait()

	require.Len(t, sms.sent, 1)
	assert.Equal(t, "9876543210", sms.sent[0].to)
	assert.Contains(t, sms.sent[0].body, "123456")
	assert.Contains(t, sms.sent[0].body, "10 minutes")

	require.Len(t, email.sent, 1)
	assert.Equal(t, address, email.sent[0].to)
	assert.Contains(t, email.sent[0].body, "123456")
	assert.Contains(t, email.sent[0].body, "Asha")
}

func TestBookingConfirmedEscapesHTML(t *testing.T) {
	email := &fakeSender{}
	d := NewDispatcher(email, nil)

	address := "asha@example.com"
	d.BookingConfirmed(context.Background(), BookingNotice{
		BookingID:   7,
		Name:        "<b>Asha</b>",
		Email:       &address,
		Mobile:      "9876543210",
		ServiceName: "Rudrabhishek",
		BookingDate: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		Total:       decimal.NewFromInt(1300),
	})
	d.Wait()

	require.Len(t, email.sent, 1)
	assert.Equal(t, "Pooja Booking Confirmation", email.sent[0].subject)
	assert.Contains(t, email.sent[0].body, "Rudrabhishek")
	assert.Contains(t, email.sent[0].body, "&lt;b&gt;Asha&lt;/b&gt;")
}

func TestDeliveryFailuresAreSwallowed(t *testing.T) {
	email := &fakeSender{err: errors.New("smtp down")}
	d := NewDispatcher(email, nil)

	assert.NotPanics(t, func() {
		d.PaymentConfirmed(context.Background(), PaymentNotice{
			Email:       "asha@example.com",
			Name:        "Asha",
			PaymentID:   "pay_1",
			OrderID:     "order_1",
			Amount:      decimal.NewFromInt(1300),
			Currency:    "INR",
			ServiceName: "Rudrabhishek",
			PaidAt:      time.Now(),
		})
		d.Wait()
	})
	assert.Len(t, email.sent, 1)
}

func TestDisabledChannels(t *testing.T) {
	d := NewDispatcher(nil, nil)

	address := "asha@example.com"
	assert.NotPanics(t, func() {
		d.SendOTP(context.Background(), OTPNotice{Mobile: "9876543210", Email: &address, Code: "123456", TTL: time.Minute})
		d.PaymentConfirmed(context.Background(), PaymentNotice{})
		d.Wait()
	})
}

func TestCancelledRequestStillDelivers(t *testing.T) {
	sms := &fakeSender{}
	d := NewDispatcher(nil, sms)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.SendOTP(ctx, OTPNotice{Mobile: "9876543210", Code: "654321", TTL: time.Minute})
	d.Wait()

	require.Len(t, sms.sent, 1)
}
