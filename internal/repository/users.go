package repository

import (
	"context"

	"pujabook/internal/database"
	"pujabook/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db.ORM()}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByMobile(ctx context.Context, mobile string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("mobile = ?", mobile).First(&user).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context, skip, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Scopes(paginate(skip, limit)).
		Order("id").
		Find(&users).Error
	return users, err
}

// Update persists every column of user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}
