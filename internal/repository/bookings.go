package repository

import (
	"context"

	"pujabook/internal/database"
	"pujabook/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db.ORM()}
}

func withBookingDetails(q *gorm.DB) *gorm.DB {
	return q.
		Preload("User").
		Preload("Puja").
		Preload("Plan").
		Preload("Chadawas", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Chadawas.Chadawa").
		Preload("Payment")
}

// Create сохраняет бронирование и все прикрепленные чадавы в одной транзакции.
// Повтор одной и той же чадавы схлопывается в одну строку, заметка берется последняя.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking, attachments []models.BookingChadawa) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(booking).Error; err != nil {
			return err
		}
		for _, a := range attachments {
			a.BookingID = booking.ID
			if err := upsertAttachment(tx, &a); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertAttachment(tx *gorm.DB, a *models.BookingChadawa) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "booking_id"}, {Name: "chadawa_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"note"}),
	}).Create(a).Error
}

// GetByID returns the booking with user, puja, plan, chadawas and payment loaded
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := withBookingDetails(r.db.WithContext(ctx)).First(&booking, id).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, skip, limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := withBookingDetails(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Scopes(paginate(skip, limit)).
		Order("id DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *BookingRepository) List(ctx context.Context, status *models.BookingStatus, skip, limit int) ([]models.Booking, error) {
	q := withBookingDetails(r.db.WithContext(ctx))
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var bookings []models.Booking
	err := q.Scopes(paginate(skip, limit)).Order("id DESC").Find(&bookings).Error
	return bookings, err
}

// TransitionStatus moves the booking to next only while its status is one of from.
// Reports false when the row was not in an allowed state.
func (r *BookingRepository) TransitionStatus(ctx context.Context, id int64, from []models.BookingStatus, next models.BookingStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateFields writes status and puja_link of booking
func (r *BookingRepository) UpdateFields(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).
		Model(&models.Booking{ID: booking.ID}).
		Select("status", "puja_link").
		Updates(map[string]any{"status": booking.Status, "puja_link": booking.PujaLink}).Error
}

func (r *BookingRepository) AttachChadawa(ctx context.Context, a *models.BookingChadawa) error {
	return upsertAttachment(r.db.WithContext(ctx), a)
}

func (r *BookingRepository) DetachChadawa(ctx context.Context, bookingID, chadawaID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("booking_id = ? AND chadawa_id = ?", bookingID, chadawaID).
		Delete(&models.BookingChadawa{})
	return res.RowsAffected > 0, res.Error
}
