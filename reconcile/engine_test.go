package reconcile_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junaidrashid-git/yar-marketplace/apperr"
	"github.com/junaidrashid-git/yar-marketplace/ledger"
	"github.com/junaidrashid-git/yar-marketplace/models"
	"github.com/junaidrashid-git/yar-marketplace/reconcile"
	"github.com/junaidrashid-git/yar-marketplace/testutil"
)

var (
	start  = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	admin  = reconcile.Actor{ID: "admin-1", Role: models.RoleAdmin}
	buyer  = reconcile.Actor{ID: "buyer-1", Role: models.RoleBuyer}
	vendor = func(id string) reconcile.Actor {
		return reconcile.Actor{ID: "user-" + id, Role: models.RoleVendor, VendorID: id}
	}
)

type fixture struct {
	store  *ledger.Store
	engine *reconcile.Engine
	sent   *testutil.Recorder
	cache  *testutil.Invalidations
	clock  *testutil.Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := testutil.NewClock(start)
	store := testutil.NewStore(t, clock.Now)
	sent := &testutil.Recorder{}
	cache := &testutil.Invalidations{}
	engine := reconcile.New(store, sent,
		reconcile.WithCache(cache),
		reconcile.WithHoldWindow(7*24*time.Hour),
		reconcile.WithOrderNumbers(testutil.SequentialNumbers),
	)
	return &fixture{store: store, engine: engine, sent: sent, cache: cache, clock: clock}
}

func (f *fixture) order(t *testing.T, id string) *models.Order {
	t.Helper()
	o, err := f.store.GetOrder(context.Background(), id)
	require.NoError(t, err)
	return o
}

func (f *fixture) newOrder(t *testing.T, vendors ...string) *models.Order {
	t.Helper()
	var items []models.OrderItem
	for i, v := range vendors {
		items = append(items, testutil.Item(v, "p-"+v, i+1, 1000))
	}
	return testutil.CreateOrder(t, f.store, buyer.ID, items...)
}

func TestConfirmAvailability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.newOrder(t, "v-1")

	got, err := f.engine.ConfirmAvailability(ctx, o.ID, vendor("v-1"))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, got.Status)
	assert.Equal(t, models.OrderStatusProcessing, f.order(t, o.ID).Status)
	assert.Equal(t, []string{"order_ready", "order_ready"}, f.sent.Kinds())
	assert.Equal(t, 1, f.cache.Count())

	history, err := f.engine.History(ctx, o.ID, admin)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, string(reconcile.EventConfirmAvailability), history[1].Event)
	assert.Equal(t, models.OrderStatusPending, history[1].FromStatus)
	assert.Equal(t, "user-v-1", history[1].ActorID)
}

func TestVendorMustOwnAnItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.newOrder(t, "v-1")

	_, err := f.engine.MarkUnavailable(ctx, o.ID, vendor("v-9"), "")
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))

	assert.Equal(t, models.OrderStatusPending, f.order(t, o.ID).Status)
	assert.Empty(t, f.sent.Sent())
	assert.Zero(t, f.cache.Count())
}

func TestUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.ConfirmAvailability(context.Background(), "nope", vendor("v-1"))
	assert.True(t, apperr.IsNotFound(err))
}

func TestMarkUnavailable_RepeatOnTerminalIsSameRejection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.newOrder(t, "v-1")

	_, err := f.engine.MarkUnavailable(ctx, o.ID, vendor("v-1"), "out of stock")
	require.NoError(t, err)
	cancelled := f.order(t, o.ID)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, "out of stock", cancelled.VendorNotes)
	f.sent.Reset()

	_, first := f.engine.MarkUnavailable(ctx, o.ID, vendor("v-1"), "again")
	_, second := f.engine.MarkUnavailable(ctx, o.ID, vendor("v-1"), "again")
	require.Error(t, first)
	assert.True(t, apperr.IsConflict(first))
	assert.Equal(t, first.Error(), second.Error())

	after := f.order(t, o.ID)
	assert.Equal(t, models.OrderStatusCancelled, after.Status)
	assert.Equal(t, cancelled.Version, after.Version)
	assert.Equal(t, "out of stock", after.VendorNotes)
	assert.Empty(t, f.sent.Sent(), "a rejected repeat must not notify anyone")

	_, err = f.engine.ConfirmAvailability(ctx, o.ID, vendor("v-1"))
	assert.True(t, apperr.IsConflict(err))
}

func TestCompletePassesThroughProcessing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.newOrder(t, "v-1")

	_, err := f.engine.Complete(ctx, o.ID, admin)
	require.True(t, apperr.IsConflict(err))

	_, err = f.engine.ConfirmAvailability(ctx, o.ID, vendor("v-1"))
	require.NoError(t, err)
	_, err = f.engine.Complete(ctx, o.ID, admin)
	require.NoError(t, err)

	history, err := f.store.History(ctx, o.ID)
	require.NoError(t, err)
	var path []models.OrderStatus
	for _, ev := range history {
		path = append(path, ev.ToStatus)
	}
	assert.Equal(t, []models.OrderStatus{models.OrderStatusPending, models.OrderStatusProcessing, models.OrderStatusCompleted}, path)
}

func TestConcurrentVendorsOnSharedOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.newOrder(t, "v-1", "v-2")

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = f.engine.ConfirmAvailability(ctx, o.ID, vendor("v-1"))
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = f.engine.MarkUnavailable(ctx, o.ID, vendor("v-2"), "sold out")
	}()
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.True(t, apperr.IsConflict(err), "loser must get a conflict, got %v", err)
	}
	assert.Equal(t, 1, successes)

	final := f.order(t, o.ID)
	if errs[0] == nil {
		assert.Equal(t, models.OrderStatusProcessing, final.Status)
	} else {
		assert.Equal(t, models.OrderStatusCancelled, final.Status)
	}
	history, err := f.store.History(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestSubmitReference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.newOrder(t, "v-1")

	_, err := f.engine.SubmitReference(ctx, o.ID, buyer, "   ")
	assert.True(t, apperr.IsValidation(err))

	stranger := reconcile.Actor{ID: "buyer-2", Role: models.RoleBuyer}
	_, err = f.engine.SubmitReference(ctx, o.ID, stranger, "OM-999")
	assert.True(t, apperr.IsConflict(err))

	got, err := f.engine.SubmitReference(ctx, o.ID, buyer, "OM-999")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPendingVerification, got.Status)

	stored := f.order(t, o.ID)
	assert.Equal(t, "OM-999", stored.Payment.ExternalReference)
	assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)
	assert.Equal(t, []string{"reference_submitted"}, f.sent.Kinds())
}

func TestVerifyAndRejectPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	verified := f.newOrder(t, "v-1")
	got, err := f.engine.VerifyPayment(ctx, verified.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
	assert.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)
	stored := f.order(t, verified.ID)
	assert.Equal(t, "admin-1", stored.Payment.VerifiedBy)
	require.NotNil(t, stored.Payment.VerifiedAt)

	_, err = f.engine.ConfirmAvailability(ctx, verified.ID, vendor("v-1"))
	require.NoError(t, err)

	rejected := f.newOrder(t, "v-1")
	got, err = f.engine.RejectPayment(ctx, rejected.ID, admin, "no such transfer")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)
	assert.Equal(t, models.PaymentStatusFailed, got.PaymentStatus)

	got, err = f.engine.SubmitReference(ctx, rejected.ID, buyer, "OM-777")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, got.PaymentStatus)

	_, err = f.engine.VerifyPayment(ctx, rejected.ID, vendor("v-1"))
	assert.True(t, apperr.IsConflict(err), "vendors cannot verify payments")
}

func TestManualOrderCannotLeavePendingWithoutReference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	draft := testutil.Draft(buyer.ID, testutil.Item("v-1", "p", 1, 100))
	draft.Payment.ExternalReference = ""
	o, err := f.store.CreateOrder(ctx, draft, testutil.SequentialNumbers, nil)
	require.NoError(t, err)

	_, err = f.engine.ConfirmAvailability(ctx, o.ID, vendor("v-1"))
	assert.True(t, apperr.IsConflict(err))

	_, err = f.engine.VerifyPayment(ctx, o.ID, admin)
	assert.True(t, apperr.IsConflict(err))

	_, err = f.engine.MarkUnavailable(ctx, o.ID, vendor("v-1"), "")
	assert.NoError(t, err, "cancelling does not need a reference")
}

func TestConfirmDeliveryFee(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.newOrder(t, "v-1")

	_, err := f.engine.ConfirmDeliveryFee(ctx, o.ID, admin, decimal.NewFromInt(-1))
	assert.True(t, apperr.IsValidation(err))

	got, err := f.engine.ConfirmDeliveryFee(ctx, o.ID, vendor("v-1"), decimal.NewFromInt(1500))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)

	stored := f.order(t, o.ID)
	assert.True(t, stored.DeliveryFeeConfirmed)
	assert.True(t, stored.DeliveryFee.Equal(decimal.NewFromInt(1500)))
	assert.True(t, stored.TotalAmount.Equal(stored.Subtotal.Add(stored.DeliveryFee)))
}

func TestConfirmDeliveryFee_RejectedOncePaid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.openSession(t, 3000)
	o, err := f.engine.HandleProcessorCallback(ctx, reconcile.Callback{SessionID: sess.ID, Approved: true, ProcessorRef: "TR-9"})
	require.NoError(t, err)

	_, err = f.engine.ConfirmDeliveryFee(ctx, o.ID, admin, decimal.NewFromInt(800))
	assert.True(t, apperr.IsConflict(err))

	stored := f.order(t, o.ID)
	assert.False(t, stored.DeliveryFeeConfirmed)
	assert.True(t, stored.TotalAmount.Equal(decimal.NewFromInt(3000)), "total %s", stored.TotalAmount)
}

func TestResolveDispute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.newOrder(t, "v-1", "v-2")
	_, err := f.engine.ConfirmAvailability(ctx, o.ID, vendor("v-1"))
	require.NoError(t, err)

	_, err = f.engine.ResolveDispute(ctx, o.ID, admin, reconcile.Resolution{Outcome: models.OrderStatusPending})
	assert.True(t, apperr.IsValidation(err))

	_, err = f.engine.ResolveDispute(ctx, o.ID, admin, reconcile.Resolution{
		Outcome: models.OrderStatusReturned,
		Penalty: &reconcile.Penalty{VendorID: "v-9", Amount: decimal.NewFromInt(500)},
	})
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, models.OrderStatusProcessing, f.order(t, o.ID).Status)

	f.sent.Reset()
	got, err := f.engine.ResolveDispute(ctx, o.ID, admin, reconcile.Resolution{
		Outcome: models.OrderStatusReturned,
		Note:    "damaged on arrival",
		Penalty: &reconcile.Penalty{VendorID: "v-2", Amount: decimal.NewFromInt(500), Reason: "damaged goods"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusReturned, got.Status)
	assert.Contains(t, f.sent.Kinds(), "vendor_penalized")

	penalties, err := f.store.Penalties(ctx, "v-2")
	require.NoError(t, err)
	require.Len(t, penalties, 1)
	assert.True(t, penalties[0].Amount.Equal(decimal.NewFromInt(500)))

	_, err = f.engine.ResolveDispute(ctx, o.ID, admin, reconcile.Resolution{Outcome: models.OrderStatusCancelled})
	assert.True(t, apperr.IsConflict(err))
}

func TestHistoryAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.newOrder(t, "v-1")

	_, err := f.engine.History(ctx, o.ID, buyer)
	assert.NoError(t, err)
	_, err = f.engine.History(ctx, o.ID, vendor("v-1"))
	assert.NoError(t, err)
	_, err = f.engine.History(ctx, o.ID, vendor("v-2"))
	assert.True(t, apperr.IsConflict(err))
	_, err = f.engine.History(ctx, o.ID, reconcile.Actor{ID: "buyer-2", Role: models.RoleBuyer})
	assert.True(t, apperr.IsConflict(err))
}
