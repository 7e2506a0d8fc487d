package service

import (
	"context"
	"fmt"
	"strings"

	apperr "pujabook/internal/errors"
	"pujabook/internal/logger"
	"pujabook/internal/models"
	"pujabook/internal/repository"

	"github.com/shopspring/decimal"
)

type CatalogService struct {
	pujas    *repository.PujaRepository
	plans    *repository.PlanRepository
	chadawas *repository.ChadawaRepository
	index    PujaIndex
}

func NewCatalogService(pujas *repository.PujaRepository, plans *repository.PlanRepository, chadawas *repository.ChadawaRepository, index PujaIndex) *CatalogService {
	return &CatalogService{
		pujas:    pujas,
		plans:    plans,
		chadawas: chadawas,
		index:    index,
	}
}

// Pujas

func (s *CatalogService) ListPujas(ctx context.Context, page models.Page, withDetails bool) ([]models.Puja, error) {
	pujas, err := s.pujas.List(ctx, page.Skip, page.Limit, withDetails)
	if err != nil {
		return nil, fmt.Errorf("failed to list pujas: %w", err)
	}
	return pujas, nil
}

func (s *CatalogService) GetPuja(ctx context.Context, id int64) (*models.Puja, error) {
	puja, err := s.pujas.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get puja: %w", err)
	}
	if puja == nil {
		return nil, apperr.New(apperr.ErrNotFound, "Puja not found")
	}
	return puja, nil
}

// SearchPujas uses the search index when configured and the index answers,
// otherwise a case-insensitive name match in SQL.
func (s *CatalogService) SearchPujas(ctx context.Context, query string, page models.Page) (*models.PujaSearchResult, error) {
	query = strings.TrimSpace(query)

	if s.index != nil {
		ids, total, err := s.index.Search(ctx, query, page.Skip, page.Limit)
		if err == nil {
			pujas, err := s.pujas.ListByIDs(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("failed to load pujas: %w", err)
			}
			return &models.PujaSearchResult{Items: pujas, Total: total}, nil
		}
		logger.WithContext(ctx).Error("Search index unavailable, falling back to SQL", "error", err)
	}

	pujas, total, err := s.pujas.SearchByName(ctx, query, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search pujas: %w", err)
	}
	return &models.PujaSearchResult{Items: pujas, Total: total}, nil
}

func (s *CatalogService) CreatePuja(ctx context.Context, in *models.PujaInput) (*models.Puja, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.New(apperr.ErrInvalidInput, "Name cannot be empty")
	}

	puja := &models.Puja{Name: name, Description: in.Description}
	if err := s.pujas.Create(ctx, puja); err != nil {
		return nil, fmt.Errorf("failed to create puja: %w", err)
	}
	s.reindex(ctx, puja)
	return puja, nil
}

func (s *CatalogService) UpdatePuja(ctx context.Context, id int64, in *models.PujaInput) (*models.Puja, error) {
	puja, err := s.GetPuja(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.New(apperr.ErrInvalidInput, "Name cannot be empty")
	}

	puja.Name = name
	puja.Description = in.Description
	if err := s.pujas.Update(ctx, puja); err != nil {
		return nil, fmt.Errorf("failed to update puja: %w", err)
	}
	s.reindex(ctx, puja)
	return puja, nil
}

func (s *CatalogService) DeletePuja(ctx context.Context, id int64) error {
	deleted, err := s.pujas.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete puja: %w", err)
	}
	if !deleted {
		return apperr.New(apperr.ErrNotFound, "Puja not found")
	}
	if s.index != nil {
		if err := s.index.DeletePuja(ctx, id); err != nil {
			logger.WithContext(ctx).Error("Failed to remove puja from search index", "error", err, "puja_id", id)
		}
	}
	return nil
}

func (s *CatalogService) reindex(ctx context.Context, puja *models.Puja) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexPuja(ctx, puja); err != nil {
		logger.WithContext(ctx).Error("Failed to index puja", "error", err, "puja_id", puja.ID)
	}
}

func (s *CatalogService) AddImage(ctx context.Context, in *models.PujaImageInput) (*models.PujaImage, error) {
	if err := s.requirePuja(ctx, in.PujaID); err != nil {
		return nil, err
	}
	image := &models.PujaImage{PujaID: in.PujaID, ImageURL: in.ImageURL}
	if err := s.pujas.AddImage(ctx, image); err != nil {
		return nil, fmt.Errorf("failed to add image: %w", err)
	}
	return image, nil
}

func (s *CatalogService) DeleteImage(ctx context.Context, id int64) error {
	deleted, err := s.pujas.DeleteImage(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if !deleted {
		return apperr.New(apperr.ErrNotFound, "Puja image not found")
	}
	return nil
}

func (s *CatalogService) LinkPlan(ctx context.Context, pujaID, planID int64) error {
	if err := s.requirePuja(ctx, pujaID); err != nil {
		return err
	}
	if _, err := s.GetPlan(ctx, planID); err != nil {
		return err
	}
	if err := s.pujas.LinkPlan(ctx, pujaID, planID); err != nil {
		return fmt.Errorf("failed to link plan: %w", err)
	}
	return nil
}

func (s *CatalogService) UnlinkPlan(ctx context.Context, pujaID, planID int64) error {
	removed, err := s.pujas.UnlinkPlan(ctx, pujaID, planID)
	if err != nil {
		return fmt.Errorf("failed to unlink plan: %w", err)
	}
	if !removed {
		return apperr.New(apperr.ErrNotFound, "Plan association not found")
	}
	return nil
}

func (s *CatalogService) LinkChadawa(ctx context.Context, pujaID, chadawaID int64) error {
	if err := s.requirePuja(ctx, pujaID); err != nil {
		return err
	}
	if _, err := s.GetChadawa(ctx, chadawaID); err != nil {
		return err
	}
	if err := s.pujas.LinkChadawa(ctx, pujaID, chadawaID); err != nil {
		return fmt.Errorf("failed to link chadawa: %w", err)
	}
	return nil
}

func (s *CatalogService) UnlinkChadawa(ctx context.Context, pujaID, chadawaID int64) error {
	removed, err := s.pujas.UnlinkChadawa(ctx, pujaID, chadawaID)
	if err != nil {
		return fmt.Errorf("failed to unlink chadawa: %w", err)
	}
	if !removed {
		return apperr.New(apperr.ErrNotFound, "Chadawa association not found")
	}
	return nil
}

func (s *CatalogService) ListPujaChadawas(ctx context.Context, pujaID int64, page models.Page) ([]models.Chadawa, error) {
	if err := s.requirePuja(ctx, pujaID); err != nil {
		return nil, err
	}
	chadawas, err := s.chadawas.ListByPuja(ctx, pujaID, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chadawas: %w", err)
	}
	return chadawas, nil
}

func (s *CatalogService) ListPujaPlans(ctx context.Context, pujaID int64, page models.Page) ([]models.Plan, error) {
	if err := s.requirePuja(ctx, pujaID); err != nil {
		return nil, err
	}
	plans, err := s.plans.ListByPuja(ctx, pujaID, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

func (s *CatalogService) requirePuja(ctx context.Context, id int64) error {
	ok, err := s.pujas.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get puja: %w", err)
	}
	if !ok {
		return apperr.New(apperr.ErrNotFound, "Puja not found")
	}
	return nil
}

// Plans

func (s *CatalogService) ListPlans(ctx context.Context, page models.Page) ([]models.Plan, error) {
	plans, err := s.plans.List(ctx, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

func (s *CatalogService) GetPlan(ctx context.Context, id int64) (*models.Plan, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, apperr.New(apperr.ErrNotFound, "Plan not found")
	}
	return plan, nil
}

func (s *CatalogService) CreatePlan(ctx context.Context, in *models.PlanInput) (*models.Plan, error) {
	plan := &models.Plan{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		ImageURL:    in.ImageURL,
		ActualPrice: in.ActualPrice,
	}
	if in.DiscountedPrice != nil {
		plan.DiscountedPrice = decimal.NewNullDecimal(*in.DiscountedPrice)
	}
	if err := validatePlan(plan); err != nil {
		return nil, err
	}

	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	return plan, nil
}

func (s *CatalogService) UpdatePlan(ctx context.Context, id int64, patch *models.PlanPatch) (*models.Plan, error) {
	plan, err := s.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		plan.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		plan.Description = patch.Description
	}
	if patch.ImageURL != nil {
		plan.ImageURL = patch.ImageURL
	}
	if patch.ActualPrice != nil {
		plan.ActualPrice = *patch.ActualPrice
	}
	if patch.DiscountedPrice != nil {
		plan.DiscountedPrice = decimal.NewNullDecimal(*patch.DiscountedPrice)
	}
	if err := validatePlan(plan); err != nil {
		return nil, err
	}

	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	return plan, nil
}

func (s *CatalogService) DeletePlan(ctx context.Context, id int64) error {
	deleted, err := s.plans.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if !deleted {
		return apperr.New(apperr.ErrNotFound, "Plan not found")
	}
	return nil
}

func validatePlan(plan *models.Plan) error {
	if plan.Name == "" {
		return apperr.New(apperr.ErrInvalidInput, "Name cannot be empty")
	}
	if !plan.ActualPrice.IsPositive() {
		return apperr.New(apperr.ErrInvalidInput, "Actual price must be greater than zero")
	}
	if plan.DiscountedPrice.Valid {
		d := plan.DiscountedPrice.Decimal
		if d.IsNegative() || d.GreaterThan(plan.ActualPrice) {
			return apperr.New(apperr.ErrInvalidInput, "Discounted price must be between zero and the actual price")
		}
	}
	return nil
}

// Chadawas

func (s *CatalogService) ListChadawas(ctx context.Context, page models.Page) ([]models.Chadawa, error) {
	chadawas, err := s.chadawas.List(ctx, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chadawas: %w", err)
	}
	return chadawas, nil
}

func (s *CatalogService) GetChadawa(ctx context.Context, id int64) (*models.Chadawa, error) {
	chadawa, err := s.chadawas.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get chadawa: %w", err)
	}
	if chadawa == nil {
		return nil, apperr.New(apperr.ErrNotFound, "Chadawa not found")
	}
	return chadawa, nil
}

func (s *CatalogService) CreateChadawa(ctx context.Context, in *models.ChadawaInput) (*models.Chadawa, error) {
	chadawa := &models.Chadawa{
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		ImageURL:     in.ImageURL,
		Price:        in.Price,
		RequiresNote: in.RequiresNote,
	}
	if err := validateChadawa(chadawa); err != nil {
		return nil, err
	}

	if err := s.chadawas.Create(ctx, chadawa); err != nil {
		return nil, fmt.Errorf("failed to create chadawa: %w", err)
	}
	return chadawa, nil
}

func (s *CatalogService) UpdateChadawa(ctx context.Context, id int64, patch *models.ChadawaPatch) (*models.Chadawa, error) {
	chadawa, err := s.GetChadawa(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		chadawa.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		chadawa.Description = patch.Description
	}
	if patch.ImageURL != nil {
		chadawa.ImageURL = patch.ImageURL
	}
	if patch.Price != nil {
		chadawa.Price = *patch.Price
	}
	if patch.RequiresNote != nil {
		chadawa.RequiresNote = *patch.RequiresNote
	}
	if err := validateChadawa(chadawa); err != nil {
		return nil, err
	}

	if err := s.chadawas.Update(ctx, chadawa); err != nil {
		return nil, fmt.Errorf("failed to update chadawa: %w", err)
	}
	return chadawa, nil
}

func (s *CatalogService) DeleteChadawa(ctx context.Context, id int64) error {
	deleted, err := s.chadawas.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete chadawa: %w", err)
	}
	if !deleted {
		return apperr.New(apperr.ErrNotFound, "Chadawa not found")
	}
	return nil
}

func validateChadawa(c *models.Chadawa) error {
	if c.Name == "" {
		return apperr.New(apperr.ErrInvalidInput, "Name cannot be empty")
	}
	if c.Price.IsNegative() {
		return apperr.New(apperr.ErrInvalidInput, "Price cannot be negative")
	}
	return nil
}
