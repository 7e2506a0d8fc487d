package service

import (
	"context"
	"fmt"

	"pujabook/internal/models"
	"pujabook/internal/repository"

	"github.com/shopspring/decimal"
)

var paisePerRupee = decimal.NewFromInt(100)

// Total sums the plan's effective price and the price of every selected chadawa.
// Ids missing from chadawas are skipped. A repeated id is charged each time it appears.
func Total(plan *models.Plan, chadawaIDs []int64, chadawas map[int64]models.Chadawa) decimal.Decimal {
	total := decimal.Zero
	if plan != nil {
		total = total.Add(plan.EffectivePrice())
	}
	for _, id := range chadawaIDs {
		if c, ok := chadawas[id]; ok {
			total = total.Add(c.Price)
		}
	}
	return total
}

// ToPaise converts a rupee amount to the integer minor units the gateway expects
func ToPaise(amount decimal.Decimal) int64 {
	return amount.Mul(paisePerRupee).Round(0).IntPart()
}

// PricingCalculator loads the plan and chadawas referenced by a booking and prices them
type PricingCalculator struct {
	plans    *repository.PlanRepository
	chadawas *repository.ChadawaRepository
}

func NewPricingCalculator(plans *repository.PlanRepository, chadawas *repository.ChadawaRepository) *PricingCalculator {
	return &PricingCalculator{plans: plans, chadawas: chadawas}
}

func (p *PricingCalculator) Calculate(ctx context.Context, planID *int64, chadawaIDs []int64) (decimal.Decimal, error) {
	var plan *models.Plan
	if planID != nil {
		var err error
		plan, err = p.plans.GetByID(ctx, *planID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to get plan: %w", err)
		}
	}

	chadawas, err := p.chadawas.GetByIDs(ctx, chadawaIDs)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get chadawas: %w", err)
	}

	return Total(plan, chadawaIDs, chadawas), nil
}

// ForBooking prices a persisted booking from its plan and attached chadawas
func (p *PricingCalculator) ForBooking(ctx context.Context, booking *models.Booking) (decimal.Decimal, error) {
	ids := make([]int64, 0, len(booking.Chadawas))
	for _, a := range booking.Chadawas {
		ids = append(ids, a.ChadawaID)
	}
	return p.Calculate(ctx, booking.PlanID, ids)
}
