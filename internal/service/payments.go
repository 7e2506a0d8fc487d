package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperr "pujabook/internal/errors"
	"pujabook/internal/logger"
	"pujabook/internal/messaging"
	"pujabook/internal/metrics"
	"pujabook/internal/models"
	"pujabook/internal/notification"
	"pujabook/internal/repository"
)

const (
	msgPaymentNotFound  = "Payment not found"
	msgPaymentCompleted = "Payment already completed for this booking"
	msgInvalidSignature = "Invalid payment signature"
	msgTotalChanged     = "Booking total changed, please create a new payment order"
)

type PaymentService struct {
	bookingRepo *repository.BookingRepository
	paymentRepo *repository.PaymentRepository
	pricing     *PricingCalculator
	gateway     PaymentGateway
	notifier    Notifier
	publisher   messaging.Publisher
}

func NewPaymentService(bookingRepo *repository.BookingRepository, paymentRepo *repository.PaymentRepository, pricing *PricingCalculator, gateway PaymentGateway, notifier Notifier, publisher messaging.Publisher) *PaymentService {
	return &PaymentService{
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		pricing:     pricing,
		gateway:     gateway,
		notifier:    notifier,
		publisher:   publisher,
	}
}

// CreateOrder заводит заказ в платежном шлюзе на рассчитанную сумму бронирования.
// Повторный вызов для неоплаченного бронирования перезаписывает заказ.
func (s *PaymentService) CreateOrder(ctx context.Context, actor Actor, bookingID int64) (*models.CreateOrderResponse, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, apperr.New(apperr.ErrNotFound, msgBookingNotFound)
	}
	// чужое бронирование отдается тем же классом ошибки, что и отсутствующее
	if booking.UserID != actor.UserID {
		return nil, apperr.New(apperr.ErrNotFound, msgBookingForbidden)
	}
	if booking.Payment != nil && booking.Payment.Status == models.PaymentStatusSuccess {
		return nil, apperr.New(apperr.ErrPrecondition, msgPaymentCompleted)
	}
	if !payable(booking.Status) {
		return nil, apperr.New(apperr.ErrPrecondition, fmt.Sprintf("Cannot pay for a %s booking", booking.Status))
	}

	total, err := s.pricing.ForBooking(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate booking total: %w", err)
	}
	if !total.IsPositive() {
		return nil, apperr.New(apperr.ErrPrecondition, "Booking total must be greater than zero")
	}

	order, err := s.gateway.CreateOrder(ctx, ToPaise(total), models.DefaultCurrency, fmt.Sprintf("booking_%d", booking.ID))
	if err != nil {
		metrics.PaymentsTotal.WithLabelValues("create_order", "gateway_error").Inc()
		logger.WithContext(ctx).Error("Payment gateway order failed", "error", err, "booking_id", booking.ID)
		return nil, apperr.New(apperr.ErrGateway, "Payment gateway error, please try again")
	}

	payment, err := s.paymentRepo.UpsertOrder(ctx, booking.ID, order.ID, total, models.DefaultCurrency)
	if errors.Is(err, repository.ErrPaymentCompleted) {
		return nil, apperr.New(apperr.ErrPrecondition, msgPaymentCompleted)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	metrics.PaymentsTotal.WithLabelValues("create_order", "success").Inc()
	logger.WithContext(ctx).Info("Payment order created", "booking_id", booking.ID, "order_id", order.ID, "amount", total.String())

	publish(ctx, s.publisher, models.EventPaymentOrderCreated, models.PaymentOrderCreatedEvent{
		BookingID: booking.ID,
		OrderID:   payment.RazorpayOrderID,
		Amount:    total,
		Currency:  payment.Currency,
		Timestamp: time.Now(),
	})

	return &models.CreateOrderResponse{
		OrderID:       payment.RazorpayOrderID,
		Amount:        total,
		Currency:      payment.Currency,
		RazorpayKeyID: s.gateway.KeyID(),
	}, nil
}

// Verify проверяет подпись шлюза. Успех переводит платеж в success, а бронирование в confirmed;
// неверная подпись окончательно переводит платеж в failed.
func (s *PaymentService) Verify(ctx context.Context, actor Actor, req *models.VerifyPaymentRequest) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByOrderID(ctx, req.RazorpayOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment == nil {
		return nil, apperr.New(apperr.ErrNotFound, msgPaymentNotFound)
	}

	booking, err := s.bookingRepo.GetByID(ctx, payment.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil || !actor.CanAccess(booking.UserID) {
		return nil, apperr.New(apperr.ErrNotFound, msgPaymentNotFound)
	}

	switch payment.Status {
	case models.PaymentStatusSuccess:
		return nil, apperr.New(apperr.ErrPrecondition, msgPaymentCompleted)
	case models.PaymentStatusCreated:
	default:
		return nil, apperr.New(apperr.ErrPrecondition, fmt.Sprintf("Payment is %s and cannot be verified", payment.Status))
	}
	if !payable(booking.Status) {
		return nil, apperr.New(apperr.ErrPrecondition, fmt.Sprintf("Cannot pay for a %s booking", booking.Status))
	}

	// заказ действителен только на ту сумму, на которую он создан
	total, err := s.pricing.ForBooking(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate booking total: %w", err)
	}
	if ToPaise(total) != ToPaise(payment.Amount) {
		logger.WithContext(ctx).Warn("Booking total differs from order amount",
			"booking_id", booking.ID, "order_id", payment.RazorpayOrderID,
			"order_amount", payment.Amount.String(), "total", total.String())
		return nil, apperr.New(apperr.ErrPrecondition, msgTotalChanged)
	}

	if !s.gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		if _, err := s.paymentRepo.MarkFailed(ctx, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature); err != nil {
			return nil, fmt.Errorf("failed to record failed payment: %w", err)
		}

		metrics.PaymentsTotal.WithLabelValues("verify", "invalid_signature").Inc()
		logger.WithContext(ctx).Warn("Invalid payment signature", "order_id", req.RazorpayOrderID, "booking_id", payment.BookingID)

		publish(ctx, s.publisher, models.EventPaymentFailed, models.PaymentFailedEvent{
			BookingID: payment.BookingID,
			PaymentID: req.RazorpayPaymentID,
			OrderID:   req.RazorpayOrderID,
			Reason:    "invalid_signature",
			Timestamp: time.Now(),
		})
		return nil, apperr.New(apperr.ErrInvalidInput, msgInvalidSignature)
	}

	completed, err := s.paymentRepo.CompleteVerification(ctx, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature)
	if errors.Is(err, repository.ErrBookingNotPayable) {
		// бронирование отменили между проверкой и подтверждением
		return nil, apperr.New(apperr.ErrPrecondition, "Booking can no longer be paid")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete payment: %w", err)
	}
	if !completed {
		// параллельная проверка успела раньше
		return nil, apperr.New(apperr.ErrPrecondition, msgPaymentCompleted)
	}

	updated, err := s.paymentRepo.GetByOrderID(ctx, req.RazorpayOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	metrics.PaymentsTotal.WithLabelValues("verify", "success").Inc()
	logger.WithContext(ctx).Info("Payment verified", "order_id", req.RazorpayOrderID, "booking_id", updated.BookingID)

	publish(ctx, s.publisher, models.EventPaymentCompleted, models.PaymentCompletedEvent{
		BookingID: updated.BookingID,
		PaymentID: req.RazorpayPaymentID,
		OrderID:   req.RazorpayOrderID,
		Timestamp: time.Now(),
	})

	s.notifyPaid(ctx, booking, updated)
	return updated, nil
}

func payable(status models.BookingStatus) bool {
	return status == models.BookingStatusPending || status == models.BookingStatusConfirmed
}

func (s *PaymentService) notifyPaid(ctx context.Context, booking *models.Booking, payment *models.Payment) {
	if s.notifier == nil || booking.User == nil || booking.User.Email == nil {
		return
	}

	paymentID := ""
	if payment.RazorpayPaymentID != nil {
		paymentID = *payment.RazorpayPaymentID
	}

	name := "Custom"
	if booking.Puja != nil {
		name = booking.Puja.Name
	}

	s.notifier.PaymentConfirmed(ctx, notification.PaymentNotice{
		Email:       *booking.User.Email,
		Name:        booking.User.Name,
		PaymentID:   paymentID,
		OrderID:     payment.RazorpayOrderID,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		ServiceName: name,
		PaidAt:      payment.UpdatedAt,
	})
}

// StatusForBooking returns the payment of a booking to its owner or staff
func (s *PaymentService) StatusForBooking(ctx context.Context, actor Actor, bookingID int64) (*models.Payment, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, apperr.New(apperr.ErrNotFound, msgBookingNotFound)
	}
	if !actor.CanAccess(booking.UserID) {
		return nil, apperr.New(apperr.ErrForbidden, msgBookingForbidden)
	}
	if booking.Payment == nil {
		return nil, apperr.New(apperr.ErrNotFound, msgPaymentNotFound)
	}
	return booking.Payment, nil
}

func (s *PaymentService) ListForUser(ctx context.Context, actor Actor, page models.Page) ([]models.Payment, error) {
	payments, err := s.paymentRepo.ListByUser(ctx, actor.UserID, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	return payments, nil
}

func (s *PaymentService) ListAll(ctx context.Context, status *models.PaymentStatus, page models.Page) ([]models.Payment, error) {
	payments, err := s.paymentRepo.List(ctx, status, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	return payments, nil
}
