package repository

import (
	"context"

	"pujabook/internal/database"
	"pujabook/internal/models"

	"gorm.io/gorm"
)

type ChadawaRepository struct {
	db *gorm.DB
}

func NewChadawaRepository(db *database.DB) *ChadawaRepository {
	return &ChadawaRepository{db: db.ORM()}
}

func (r *ChadawaRepository) Create(ctx context.Context, chadawa *models.Chadawa) error {
	return r.db.WithContext(ctx).Create(chadawa).Error
}

func (r *ChadawaRepository) GetByID(ctx context.Context, id int64) (*models.Chadawa, error) {
	var chadawa models.Chadawa
	err := r.db.WithContext(ctx).First(&chadawa, id).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chadawa, nil
}

// GetByIDs returns the chadawas that exist, keyed by id
func (r *ChadawaRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]models.Chadawa, error) {
	result := make(map[int64]models.Chadawa, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var chadawas []models.Chadawa
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&chadawas).Error; err != nil {
		return nil, err
	}
	for _, c := range chadawas {
		result[c.ID] = c
	}
	return result, nil
}

func (r *ChadawaRepository) List(ctx context.Context, skip, limit int) ([]models.Chadawa, error) {
	var chadawas []models.Chadawa
	err := r.db.WithContext(ctx).Scopes(paginate(skip, limit)).Order("id").Find(&chadawas).Error
	return chadawas, err
}

func (r *ChadawaRepository) ListByPuja(ctx context.Context, pujaID int64, skip, limit int) ([]models.Chadawa, error) {
	var chadawas []models.Chadawa
	err := r.db.WithContext(ctx).
		Joins("JOIN puja_chadawas ON puja_chadawas.chadawa_id = chadawas.id").
		Where("puja_chadawas.puja_id = ?", pujaID).
		Scopes(paginate(skip, limit)).
		Order("chadawas.id").
		Find(&chadawas).Error
	return chadawas, err
}

func (r *ChadawaRepository) Update(ctx context.Context, chadawa *models.Chadawa) error {
	return r.db.WithContext(ctx).Save(chadawa).Error
}

func (r *ChadawaRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chadawa_id = ?", id).Delete(&models.PujaChadawa{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chadawa_id = ?", id).Delete(&models.BookingChadawa{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Chadawa{}, id)
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted > 0, err
}
