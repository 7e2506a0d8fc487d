package repository

import (
	"context"
	"errors"
	"time"

	"pujabook/internal/database"
	"pujabook/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrPaymentCompleted is returned when an order is requested for a booking that is already paid
var ErrPaymentCompleted = errors.New("payment already completed")

// ErrBookingNotPayable is returned when a verified payment targets a booking that was cancelled or completed
var ErrBookingNotPayable = errors.New("booking is no longer payable")

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{db: db.ORM()}
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).First(&payment, id).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID int64) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&payment).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("razorpay_order_id = ?", orderID).First(&payment).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpsertOrder привязывает новый заказ шлюза к бронированию.
// Существующая неоплаченная запись перезаписывается и снова получает статус created,
// оплаченная запись не трогается и возвращается ErrPaymentCompleted.
func (r *PaymentRepository) UpsertOrder(ctx context.Context, bookingID int64, orderID string, amount decimal.Decimal, currency string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Payment{}).
			Where("booking_id = ? AND status <> ?", bookingID, models.PaymentStatusSuccess).
			Updates(map[string]any{
				"razorpay_order_id":   orderID,
				"razorpay_payment_id": nil,
				"razorpay_signature":  nil,
				"amount":              amount,
				"currency":            currency,
				"status":              models.PaymentStatusCreated,
				"updated_at":          time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			var paid int64
			if err := tx.Model(&models.Payment{}).Where("booking_id = ?", bookingID).Count(&paid).Error; err != nil {
				return err
			}
			if paid > 0 {
				return ErrPaymentCompleted
			}
			payment = models.Payment{
				BookingID:       bookingID,
				RazorpayOrderID: orderID,
				Amount:          amount,
				Currency:        currency,
				Status:          models.PaymentStatusCreated,
			}
			return tx.Create(&payment).Error
		}

		return tx.Where("booking_id = ?", bookingID).First(&payment).Error
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// CompleteVerification переводит платеж created -> success и бронирование pending -> confirmed.
// Обе проверки статуса выполняются в UPDATE, поэтому параллельные подтверждения
// одного заказа дают ровно один успешный переход. Возвращает false, если платеж уже не в created.
// Если бронирование успели отменить или завершить, транзакция откатывается с ErrBookingNotPayable.
func (r *PaymentRepository) CompleteVerification(ctx context.Context, orderID, paymentID, signature string) (bool, error) {
	completed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Payment{}).
			Where("razorpay_order_id = ? AND status = ?", orderID, models.PaymentStatusCreated).
			Updates(map[string]any{
				"razorpay_payment_id": paymentID,
				"razorpay_signature":  signature,
				"status":              models.PaymentStatusSuccess,
				"updated_at":          time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		completed = true

		var payment models.Payment
		if err := tx.Where("razorpay_order_id = ?", orderID).First(&payment).Error; err != nil {
			return err
		}
		res = tx.Model(&models.Booking{}).
			Where("id = ? AND status IN ?", payment.BookingID,
				[]models.BookingStatus{models.BookingStatusPending, models.BookingStatusConfirmed}).
			Update("status", models.BookingStatusConfirmed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBookingNotPayable
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return completed, nil
}

// MarkFailed records a rejected signature while the payment is still created
func (r *PaymentRepository) MarkFailed(ctx context.Context, orderID, paymentID, signature string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("razorpay_order_id = ? AND status = ?", orderID, models.PaymentStatusCreated).
		Updates(map[string]any{
			"razorpay_payment_id": paymentID,
			"razorpay_signature":  signature,
			"status":              models.PaymentStatusFailed,
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID int64, skip, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Joins("JOIN bookings ON bookings.id = payments.booking_id").
		Where("bookings.user_id = ?", userID).
		Scopes(paginate(skip, limit)).
		Order("payments.id DESC").
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) List(ctx context.Context, status *models.PaymentStatus, skip, limit int) ([]models.Payment, error) {
	q := r.db.WithContext(ctx)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var payments []models.Payment
	err := q.Scopes(paginate(skip, limit)).Order("id DESC").Find(&payments).Error
	return payments, err
}
