package repository

import (
	"context"
	"time"

	"pujabook/internal/database"
	"pujabook/internal/models"

	"gorm.io/gorm"
)

type OTPRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *database.DB) *OTPRepository {
	return &OTPRepository{db: db.ORM()}
}

// Replace deletes every outstanding code of the user and stores otp
func (r *OTPRepository) Replace(ctx context.Context, otp *models.OTPLogin) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", otp.UserID).Delete(&models.OTPLogin{}).Error; err != nil {
			return err
		}
		return tx.Create(otp).Error
	})
}

// Consume marks a matching, unexpired, unverified code as verified.
// Reports false when no such code exists.
func (r *OTPRepository) Consume(ctx context.Context, userID int64, code string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OTPLogin{}).
		Where("user_id = ? AND otp_code = ? AND is_verified = ? AND expires_at > ?", userID, code, false, now).
		Update("is_verified", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *OTPRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.OTPLogin{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}
