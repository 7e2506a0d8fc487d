package repository

import (
	"context"
	"strings"

	"pujabook/internal/database"
	"pujabook/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PujaRepository struct {
	db *gorm.DB
}

func NewPujaRepository(db *database.DB) *PujaRepository {
	return &PujaRepository{db: db.ORM()}
}

func (r *PujaRepository) Create(ctx context.Context, puja *models.Puja) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(puja).Error
}

// GetByID returns the puja with images, plans and chadawas loaded
func (r *PujaRepository) GetByID(ctx context.Context, id int64) (*models.Puja, error) {
	var puja models.Puja
	err := r.db.WithContext(ctx).
		Preload("Images").
		Preload("Plans").
		Preload("Chadawas").
		First(&puja, id).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &puja, nil
}

func (r *PujaRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Puja{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *PujaRepository) List(ctx context.Context, skip, limit int, withDetails bool) ([]models.Puja, error) {
	q := r.db.WithContext(ctx).Scopes(paginate(skip, limit)).Order("id")
	if withDetails {
		q = q.Preload("Images").Preload("Plans").Preload("Chadawas")
	}
	var pujas []models.Puja
	err := q.Find(&pujas).Error
	return pujas, err
}

// ListByIDs keeps the order of ids, unknown ids are dropped
func (r *PujaRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.Puja, error) {
	if len(ids) == 0 {
		return []models.Puja{}, nil
	}
	var found []models.Puja
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Preload("Images").Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]models.Puja, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	pujas := make([]models.Puja, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			pujas = append(pujas, p)
		}
	}
	return pujas, nil
}

// SearchByName - поиск по подстроке имени без учета регистра, используется без Elasticsearch
func (r *PujaRepository) SearchByName(ctx context.Context, query string, skip, limit int) ([]models.Puja, int64, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	base := r.db.WithContext(ctx).Model(&models.Puja{}).Where("LOWER(name) LIKE ?", pattern)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var pujas []models.Puja
	err := base.Session(&gorm.Session{}).
		Preload("Images").
		Scopes(paginate(skip, limit)).
		Order("id").
		Find(&pujas).Error
	return pujas, total, err
}

func (r *PujaRepository) Update(ctx context.Context, puja *models.Puja) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(puja).Error
}

func (r *PujaRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Select(clause.Associations).Delete(&models.Puja{ID: id})
	return res.RowsAffected > 0, res.Error
}

func (r *PujaRepository) AddImage(ctx context.Context, image *models.PujaImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *PujaRepository) DeleteImage(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.PujaImage{}, id)
	return res.RowsAffected > 0, res.Error
}

// LinkPlan is idempotent
func (r *PujaRepository) LinkPlan(ctx context.Context, pujaID, planID int64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.PujaPlan{PujaID: pujaID, PlanID: planID}).Error
}

func (r *PujaRepository) UnlinkPlan(ctx context.Context, pujaID, planID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("puja_id = ? AND plan_id = ?", pujaID, planID).
		Delete(&models.PujaPlan{})
	return res.RowsAffected > 0, res.Error
}

// LinkChadawa is idempotent
func (r *PujaRepository) LinkChadawa(ctx context.Context, pujaID, chadawaID int64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.PujaChadawa{PujaID: pujaID, ChadawaID: chadawaID}).Error
}

func (r *PujaRepository) UnlinkChadawa(ctx context.Context, pujaID, chadawaID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("puja_id = ? AND chadawa_id = ?", pujaID, chadawaID).
		Delete(&models.PujaChadawa{})
	return res.RowsAffected > 0, res.Error
}
