package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/isolele/isolele-backend/internal/cart"
	"github.com/isolele/isolele-backend/pkg/db/dbtest"
	"github.com/isolele/isolele-backend/pkg/db/models"
	"github.com/isolele/isolele-backend/pkg/enums"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), cart.DefaultShippingPolicy())
	require.NoError(t, err)
	return svc, conn
}

func scenarioOrder() CreateOrderInput {
	card := enums.PaymentMethodCard
	return CreateOrderInput{
		CustomerName:  "Ada Lovelace",
		CustomerEmail: "Ada@Example.com",
		PaymentMethod: &card,
		Items: []LineItemInput{
			{Name: "Isolele Vol. 1", UnitPriceCents: 2699, Quantity: 1},
			{Name: "Poster", UnitPriceCents: 1999, Quantity: 2},
		},
	}
}

func TestCreateComputesTotals(t *testing.T) {
	svc, _ := newTestService(t)

	order, err := svc.Create(context.Background(), scenarioOrder())
	require.NoError(t, err)
	assert.Equal(t, "66.97", order.Subtotal)
	assert.Equal(t, "0.00", order.Shipping)
	assert.Equal(t, "66.97", order.Total)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "ada@example.com", order.CustomerEmail)
	require.Len(t, order.LineItems, 2)
	assert.Equal(t, "39.98", order.LineItems[1].LineTotal)
}

func TestCreateBelowThresholdAddsFlatFee(t *testing.T) {
	svc, _ := newTestService(t)
	input := scenarioOrder()
	input.Items = input.Items[:1]

	order, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, int64(599), order.ShippingCents)
	assert.Equal(t, "32.98", order.Total)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	bad := scenarioOrder()
	bad.CustomerEmail = "not-an-email"
	_, err := svc.Create(ctx, bad)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	empty := scenarioOrder()
	empty.Items = nil
	_, err = svc.Create(ctx, empty)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	zero := scenarioOrder()
	zero.Items[0].Quantity = 0
	_, err = svc.Create(ctx, zero)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestUpdateStatusFollowsTransitions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	order, err := svc.Create(ctx, scenarioOrder())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, order.ID, enums.OrderStatusDelivered)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	paid, err := svc.UpdateStatus(ctx, order.ID, enums.OrderStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, "paid", paid.Status)
	require.Len(t, paid.LineItems, 2, "mutations return the full re-read order")

	same, err := svc.UpdateStatus(ctx, order.ID, enums.OrderStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, "paid", same.Status)

	_, err = svc.UpdateStatus(ctx, order.ID, "lost")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestListFiltersByStatusAndCustomer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	first, err := svc.Create(ctx, scenarioOrder())
	require.NoError(t, err)
	other := scenarioOrder()
	other.CustomerName = "Patrice"
	other.CustomerEmail = "patrice@example.com"
	_, err = svc.Create(ctx, other)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, first.ID, enums.OrderStatusPaid)
	require.NoError(t, err)

	pending := enums.OrderStatusPending
	res, err := svc.List(ctx, ListInput{Status: &pending})
	require.NoError(t, err)
	require.Len(t, res.Orders, 1)
	assert.Equal(t, "Patrice", res.Orders[0].CustomerName)

	res, err = svc.List(ctx, ListInput{Query: "ADA"})
	require.NoError(t, err)
	require.Len(t, res.Orders, 1)
	assert.Equal(t, first.ID, res.Orders[0].ID)
}

func TestCancelStalePending(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	stale, err := svc.Create(ctx, scenarioOrder())
	require.NoError(t, err)
	fresh, err := svc.Create(ctx, scenarioOrder())
	require.NoError(t, err)
	paid, err := svc.Create(ctx, scenarioOrder())
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, paid.ID, enums.OrderStatusPaid)
	require.NoError(t, err)

	old := now.Add(-15 * 24 * time.Hour)
	require.NoError(t, conn.Model(&models.Order{}).Where("id IN ?", []any{stale.ID, paid.ID}).Update("created_at", old).Error)

	cancelled, err := svc.CancelStalePending(ctx, now.Add(-10*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, cancelled)

	got, err := svc.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", got.Status)
	got, err = svc.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status)
	got, err = svc.Get(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, "paid", got.Status)
}

func TestCancelStalePendingSkipsOrdersPaidAfterScan(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	order, err := svc.Create(ctx, scenarioOrder())
	require.NoError(t, err)
	require.NoError(t, conn.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("created_at", now.Add(-15*24*time.Hour)).Error)

	// A payment lands between the stale scan and the cancellation.
	var once sync.Once
	require.NoError(t, conn.Callback().Query().After("gorm:preload").Register("test:pay_after_scan", func(tx *gorm.DB) {
		if tx.Statement.Table != "orders" {
			return
		}
		once.Do(func() {
			require.NoError(t, conn.Exec("UPDATE orders SET status = ? WHERE id = ?", enums.OrderStatusPaid, order.ID).Error)
		})
	}))

	cancelled, err := svc.CancelStalePending(ctx, now.Add(-10*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, cancelled)

	got, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "paid", got.Status)
}

func TestUpdateStatusConflictsWithConcurrentChange(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	order, err := svc.Create(ctx, scenarioOrder())
	require.NoError(t, err)

	// Another admin cancels the order after this request read it.
	var once sync.Once
	require.NoError(t, conn.Callback().Query().After("gorm:preload").Register("test:cancel_after_read", func(tx *gorm.DB) {
		if tx.Statement.Table != "orders" {
			return
		}
		once.Do(func() {
			require.NoError(t, conn.Exec("UPDATE orders SET status = ? WHERE id = ?", enums.OrderStatusCancelled, order.ID).Error)
		})
	}))

	_, err = svc.UpdateStatus(ctx, order.ID, enums.OrderStatusPaid)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	got, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", got.Status)
}
