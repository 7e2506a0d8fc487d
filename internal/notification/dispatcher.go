package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pujabook/internal/logger"
	"pujabook/internal/metrics"

	"github.com/shopspring/decimal"
)

type EmailSender interface {
	SendHTML(ctx context.Context, to, subject, body string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// OTPNotice - данные для отправки кода входа
type OTPNotice struct {
	Mobile string
	Email  *string
	Name   string
	Code   string
	TTL    time.Duration
}

// BookingNotice - данные подтверждения бронирования
type BookingNotice struct {
	BookingID   int64
	Name        string
	Email       *string
	Mobile      string
	ServiceName string
	BookingDate time.Time
	Total       decimal.Decimal
}

// PaymentNotice - данные подтверждения оплаты
type PaymentNotice struct {
	Email       string
	Name        string
	PaymentID   string
	OrderID     string
	Amount      decimal.Decimal
	Currency    string
	ServiceName string
	PaidAt      time.Time
}

// Dispatcher delivers email and SMS in the background. Delivery failures are
// logged and counted, never returned to the caller. A nil sender disables its
// channel and the message is only logged.
type Dispatcher struct {
	email   EmailSender
	sms     SMSSender
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(email EmailSender, sms SMSSender) *Dispatcher {
	return &Dispatcher{
		email:   email,
		sms:     sms,
		timeout: 30 * time.Second,
	}
}

// Wait blocks until every dispatched delivery has finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) SendOTP(ctx context.Context, n OTPNotice) {
	minutes := int(n.TTL.Minutes())
	d.sendSMS(ctx, n.Mobile, fmt.Sprintf("Your OTP for Global Pooja Booking is %s. It is valid for %d minutes.", n.Code, minutes))

	if n.Email != nil && *n.Email != "" {
		body, err := renderOTP(n.Name, n.Code, minutes)
		if err != nil {
			logger.WithContext(ctx).Error("Failed to render otp email", "error", err)
			return
		}
		d.sendEmail(ctx, *n.Email, "Your OTP for Global Pooja Booking", body)
	}
}

func (d *Dispatcher) BookingConfirmed(ctx context.Context, n BookingNotice) {
	if n.Email != nil && *n.Email != "" {
		body, err := renderBooking(n)
		if err != nil {
			logger.WithContext(ctx).Error("Failed to render booking email", "error", err, "booking_id", n.BookingID)
		} else {
			d.sendEmail(ctx, *n.Email, "Pooja Booking Confirmation", body)
		}
	}

	if n.Mobile != "" {
		d.sendSMS(ctx, n.Mobile, fmt.Sprintf(
			"Your booking #%d for %s has been confirmed. Thank you for choosing Global Pooja.",
			n.BookingID, n.ServiceName))
	}
}

func (d *Dispatcher) PaymentConfirmed(ctx context.Context, n PaymentNotice) {
	if n.Email == "" {
		return
	}
	body, err := renderPayment(n)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to render payment email", "error", err, "order_id", n.OrderID)
		return
	}
	d.sendEmail(ctx, n.Email, "Payment Confirmation - Global Pooja", body)
}

func (d *Dispatcher) sendEmail(ctx context.Context, to, subject, body string) {
	if d.email == nil {
		logger.WithContext(ctx).Info("Email delivery disabled, skipping", "to", to, "subject", subject)
		metrics.NotificationsTotal.WithLabelValues("email", "skipped").Inc()
		return
	}
	d.dispatch(ctx, "email", func(ctx context.Context) error {
		return d.email.SendHTML(ctx, to, subject, body)
	})
}

func (d *Dispatcher) sendSMS(ctx context.Context, to, body string) {
	if d.sms == nil {
		logger.WithContext(ctx).Info("SMS delivery disabled, skipping", "to", to)
		metrics.NotificationsTotal.WithLabelValues("sms", "skipped").Inc()
		return
	}
	d.dispatch(ctx, "sms", func(ctx context.Context) error {
		return d.sms.SendSMS(ctx, to, body)
	})
}

// dispatch runs send after the request returns; the request context only
// contributes its log fields, not its cancellation.
func (d *Dispatcher) dispatch(ctx context.Context, channel string, send func(context.Context) error) {
	bg := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.WithContext(bg).Error("Notification panic recovered", "channel", channel, "panic", r)
				metrics.NotificationsTotal.WithLabelValues(channel, "failed").Inc()
			}
		}()

		sendCtx, cancel := context.WithTimeout(bg, d.timeout)
		defer cancel()

		if err := send(sendCtx); err != nil {
			logger.WithContext(bg).Error("Failed to deliver notification", "channel", channel, "error", err)
			metrics.NotificationsTotal.WithLabelValues(channel, "failed").Inc()
			return
		}
		metrics.NotificationsTotal.WithLabelValues(channel, "sent").Inc()
	}()
}
