package service

import (
	"context"
	"testing"

	"pujabook/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotal(t *testing.T) {
	plan := &models.Plan{
		ActualPrice:     decimal.NewFromInt(1000),
		DiscountedPrice: decimal.NewNullDecimal(decimal.NewFromInt(800)),
	}
	chadawas := map[int64]models.Chadawa{
		1: {ID: 1, Price: decimal.NewFromInt(300)},
		2: {ID: 2, Price: decimal.NewFromInt(200)},
	}

	tests := []struct {
		name  string
		plan  *models.Plan
		ids   []int64
		total string
	}{
		{name: "plan and chadawas", plan: plan, ids: []int64{1, 2}, total: "1300"},
		{name: "plan only", plan: plan, total: "800"},
		{name: "no discount", plan: &models.Plan{ActualPrice: decimal.RequireFromString("499.50")}, total: "499.5"},
		{name: "custom booking", ids: []int64{2}, total: "200"},
		{name: "unknown chadawa skipped", plan: plan, ids: []int64{1, 99}, total: "1100"},
		{name: "repeated chadawa charged twice", ids: []int64{2, 2}, total: "400"},
		{name: "empty", total: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Total(tt.plan, tt.ids, chadawas)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.total)), "got %s", got)
		})
	}
}

func TestToPaise(t *testing.T) {
	assert.Equal(t, int64(130000), ToPaise(decimal.NewFromInt(1300)))
	assert.Equal(t, int64(49950), ToPaise(decimal.RequireFromString("499.50")))
	assert.Equal(t, int64(1), ToPaise(decimal.RequireFromString("0.005")))
}

func TestPricingCalculatorLoadsCatalog(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	plan := env.createPlan(t, 1000, 800)
	flowers := env.createChadawa(t, "Flowers", 300)
	lamp := env.createChadawa(t, "Lamp", 200)

	pricing := NewPricingCalculator(env.repos.Plans, env.repos.Chadawas)

	total, err := pricing.Calculate(ctx, &plan.ID, []int64{flowers.ID, lamp.ID})
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(1300)), "got %s", total)

	missing := int64(999)
	total, err = pricing.Calculate(ctx, &missing, []int64{lamp.ID})
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(200)), "got %s", total)
}
