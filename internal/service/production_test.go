package service

import (
	"context"
	"testing"

	"example.com/backstage/services/commerce/internal/messaging"
	"example.com/backstage/services/commerce/internal/models"
	"example.com/backstage/services/commerce/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) material(t *testing.T, name string, unit models.UnitOfMeasure, qty string) *models.RawMaterial {
	t.Helper()
	m, err := h.svc.AddMaterial(context.Background(), AddMaterialInput{
		Name:            name,
		UnitOfMeasure:   string(unit),
		InitialQuantity: decimal.RequireFromString(qty),
	})
	require.NoError(t, err)
	return m
}

func (h *harness) materialQuantity(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	m, err := h.repo.FindRawMaterial(context.Background(), id)
	require.NoError(t, err)
	return m.Quantity
}

func TestLogProduction(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.product(t, "soap", "250", "0", "0")
	h.stock(t, "soap", "500ml", 2)
	oil := h.material(t, "Coconut oil", models.UnitLitre, "10")
	lye := h.material(t, "Lye", models.UnitKilogram, "4")

	run, err := h.svc.LogProduction(ctx, ProductionInput{
		ProductID: "soap",
		Size:      "500 ml",
		Quantity:  20,
		Materials: []MaterialUsage{
			{MaterialID: oil.ID, Quantity: decimal.RequireFromString("2.5")},
			{MaterialID: lye.ID, Quantity: decimal.RequireFromString("0.75")},
			{MaterialID: oil.ID, Quantity: decimal.RequireFromString("0.5")},
		},
		OperatorID:   "op-1",
		OperatorName: "Achieng",
	})
	require.NoError(t, err)
	assert.Equal(t, "soap500ml", run.FinishedGoodItemID)
	assert.Len(t, run.ConsumedMaterials, 2)

	assert.True(t, decimal.RequireFromString("7").Equal(h.materialQuantity(t, oil.ID)))
	assert.True(t, decimal.RequireFromString("3.25").Equal(h.materialQuantity(t, lye.ID)))
	assert.Equal(t, int64(22), h.quantity(t, "soap", "500ml"))

	stored, err := h.repo.FindProductionRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), stored.QuantityProduced)
	assert.Equal(t, "Product soap", stored.ProductName)

	require.NoError(t, h.svc.Close())
	events := h.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, messaging.EventProductionLogged, events[0].Type)
}

func TestLogProductionShortMaterialChangesNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.product(t, "soap", "250", "0", "0")
	h.stock(t, "soap", "", 2)
	oil := h.material(t, "Coconut oil", models.UnitLitre, "10")
	lye := h.material(t, "Lye", models.UnitKilogram, "1")

	_, err := h.svc.LogProduction(ctx, ProductionInput{
		ProductID: "soap",
		Quantity:  20,
		Materials: []MaterialUsage{
			{MaterialID: oil.ID, Quantity: decimal.NewFromInt(3)},
			{MaterialID: lye.ID, Quantity: decimal.NewFromInt(2)},
		},
	})
	require.ErrorIs(t, err, ErrLogProduction)
	require.ErrorIs(t, err, repository.ErrInsufficientStock)
	require.Contains(t, err.Error(), "failed to log production run: insufficient Lye")

	assert.True(t, decimal.NewFromInt(10).Equal(h.materialQuantity(t, oil.ID)))
	assert.True(t, decimal.NewFromInt(1).Equal(h.materialQuantity(t, lye.ID)))
	assert.Equal(t, int64(2), h.quantity(t, "soap", ""))

	runs, err := h.svc.ListProductionRuns(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestLogProductionUnknownMaterial(t *testing.T) {
	h := newHarness(t)
	h.product(t, "soap", "250", "0", "0")

	_, err := h.svc.LogProduction(context.Background(), ProductionInput{
		ProductID: "soap",
		Quantity:  1,
		Materials: []MaterialUsage{{MaterialID: "ghost", Quantity: decimal.NewFromInt(1)}},
	})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLogProductionValidation(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.LogProduction(context.Background(), ProductionInput{ProductID: "soap"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = h.svc.LogProduction(context.Background(), ProductionInput{
		ProductID: "soap",
		Quantity:  1,
		Materials: []MaterialUsage{{MaterialID: "x", Quantity: decimal.Zero}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestLogIntake(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	oil := h.material(t, "Coconut oil", models.UnitLitre, "1.5")

	intake, err := h.svc.LogIntake(ctx, IntakeInput{
		MaterialID: oil.ID,
		Quantity:   decimal.RequireFromString("20"),
		Supplier:   "Kapa",
		ReceivedBy: "store",
	})
	require.NoError(t, err)
	assert.Equal(t, oil.ID, intake.RawMaterialID)
	assert.True(t, decimal.RequireFromString("21.5").Equal(h.materialQuantity(t, oil.ID)))

	intakes, err := h.svc.ListIntakes(ctx, oil.ID, 10)
	require.NoError(t, err)
	require.Len(t, intakes, 1)

	_, err = h.svc.LogIntake(ctx, IntakeInput{MaterialID: "ghost", Quantity: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = h.svc.AddMaterial(ctx, AddMaterialInput{Name: "Sand", UnitOfMeasure: "tonnes"})
	require.ErrorIs(t, err, ErrValidation)
}
