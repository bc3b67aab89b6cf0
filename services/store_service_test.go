package services

import (
	"testing"

	"quest-board/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) createItem(t *testing.T, creatorID string, cost int) *models.StoreItem {
	t.Helper()

	item, err := e.store.CreateItem(creatorID, CreateItemInput{Name: "Pizza night", Cost: cost})
	require.NoError(t, err)
	return item
}

func TestPurchase(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", models.RoleAdmin, 0, 0)
	buyer := env.createUser(t, "buyer", models.RolePlayer, 100, 0)
	item := env.createItem(t, admin.ID, 60)

	txn, err := env.store.Purchase(buyer.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionPending, txn.Status)
	assert.Equal(t, 60, txn.Amount)

	fresh, err := env.users.GetUser(buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, fresh.BountyBalance)

	pending, err := env.store.CountPendingTransactions()
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)
}

func TestPurchaseInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", models.RoleAdmin, 0, 0)
	buyer := env.createUser(t, "buyer", models.RolePlayer, 10, 0)
	item := env.createItem(t, admin.ID, 60)

	_, err := env.store.Purchase(buyer.ID, item.ID)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// The whole purchase rolled back: no transaction row, balance untouched.
	var count int64
	require.NoError(t, env.db.Model(&models.StoreTransaction{}).Count(&count).Error)
	assert.Zero(t, count)

	fresh, err := env.users.GetUser(buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, fresh.BountyBalance)
}

func TestPurchaseInactiveItem(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", models.RoleAdmin, 0, 0)
	buyer := env.createUser(t, "buyer", models.RolePlayer, 100, 0)
	item := env.createItem(t, admin.ID, 60)

	_, err := env.store.SetItemActive(item.ID, false)
	require.NoError(t, err)

	_, err = env.store.Purchase(buyer.ID, item.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestApproveTransaction(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", models.RoleAdmin, 0, 0)
	buyer := env.createUser(t, "buyer", models.RolePlayer, 100, 0)
	item := env.createItem(t, admin.ID, 60)

	txn, err := env.store.Purchase(buyer.ID, item.ID)
	require.NoError(t, err)

	approved, err := env.store.ApproveTransaction(txn.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, admin.ID, *approved.ReviewedBy)
	require.NotNil(t, approved.ReviewedAt)
	assert.True(t, approved.ReviewedAt.Equal(env.clock.Now().UTC()))

	// Approval keeps the debit.
	fresh, err := env.users.GetUser(buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, fresh.BountyBalance)

	assert.Len(t, env.notificationsFor(t, buyer.ID, models.NotificationPurchaseApproved), 1)

	// Review is one-shot.
	_, err = env.store.ApproveTransaction(txn.ID, admin.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRejectTransactionRefunds(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", models.RoleAdmin, 0, 0)
	buyer := env.createUser(t, "buyer", models.RolePlayer, 100, 0)
	item := env.createItem(t, admin.ID, 60)

	txn, err := env.store.Purchase(buyer.ID, item.ID)
	require.NoError(t, err)

	rejected, err := env.store.RejectTransaction(txn.ID, admin.ID, "out of stock")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionRejected, rejected.Status)
	assert.Equal(t, "out of stock", rejected.Notes)

	fresh, err := env.users.GetUser(buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, fresh.BountyBalance)

	assert.Len(t, env.notificationsFor(t, buyer.ID, models.NotificationPurchaseRejected), 1)
}

func TestReviewTransactionNotFound(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", models.RoleAdmin, 0, 0)

	_, err := env.store.ApproveTransaction("missing-txn", admin.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
