package repository

import (
	"context"

	"pujabook/internal/database"
	"pujabook/internal/models"

	"gorm.io/gorm"
)

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *database.DB) *PlanRepository {
	return &PlanRepository{db: db.ORM()}
}

func (r *PlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *PlanRepository) GetByID(ctx context.Context, id int64) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.WithContext(ctx).First(&plan, id).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) List(ctx context.Context, skip, limit int) ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.WithContext(ctx).Scopes(paginate(skip, limit)).Order("id").Find(&plans).Error
	return plans, err
}

func (r *PlanRepository) ListByPuja(ctx context.Context, pujaID int64, skip, limit int) ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.WithContext(ctx).
		Joins("JOIN puja_plans ON puja_plans.plan_id = plans.id").
		Where("puja_plans.puja_id = ?", pujaID).
		Scopes(paginate(skip, limit)).
		Order("plans.id").
		Find(&plans).Error
	return plans, err
}

func (r *PlanRepository) Update(ctx context.Context, plan *models.Plan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

func (r *PlanRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", id).Delete(&models.PujaPlan{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Booking{}).Where("plan_id = ?", id).Update("plan_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Plan{}, id)
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted > 0, err
}
