package services

import (
	"errors"
	"fmt"

	"quest-board/models"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// StoreService runs the virtual store: admins stock items, players spend
// bounty on them. A purchase debits the balance immediately and opens a
// PENDING transaction for admin review; rejection refunds the debit.
type StoreService struct {
	DB       *gorm.DB
	Ledger   *LedgerService
	Notifier *NotificationService
	Clock    clockwork.Clock
}

func NewStoreService(db *gorm.DB, ledger *LedgerService, notifier *NotificationService, clock clockwork.Clock) *StoreService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &StoreService{DB: db, Ledger: ledger, Notifier: notifier, Clock: clock}
}

// --- Items ---

// CreateItemInput is the validated shape for stocking an item.
type CreateItemInput struct {
	Name        string
	Description string
	ImageURL    string
	Cost        int
}

func (s *StoreService) CreateItem(creatorID string, in CreateItemInput) (*models.StoreItem, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrInvalidState)
	}
	if in.Cost <= 0 {
		return nil, fmt.Errorf("cost must be positive: %w", ErrInvalidState)
	}

	item := models.StoreItem{
		Name:        in.Name,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Cost:        in.Cost,
		IsActive:    true,
		CreatedBy:   creatorID,
	}
	if err := s.DB.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("create item: %w: %v", ErrStoreUnavailable, err)
	}
	return &item, nil
}

// ListItems returns active items; includeInactive widens it for admins.
func (s *StoreService) ListItems(includeInactive bool) ([]models.StoreItem, error) {
	query := s.DB.Order("created_at DESC")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var items []models.StoreItem
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *StoreService) GetItem(itemID string) (*models.StoreItem, error) {
	var item models.StoreItem
	if err := s.DB.Where("id = ?", itemID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("store item %s: %w", itemID, ErrNotFound)
		}
		return nil, err
	}
	return &item, nil
}

// SetItemActive toggles whether an item can be purchased.
func (s *StoreService) SetItemActive(itemID string, active bool) (*models.StoreItem, error) {
	item, err := s.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	item.IsActive = active
	if err := s.DB.Save(item).Error; err != nil {
		return nil, fmt.Errorf("update item: %w: %v", ErrStoreUnavailable, err)
	}
	return item, nil
}

// --- Purchases ---

// Purchase debits the buyer and opens a PENDING transaction, atomically: an
// insufficient balance (or any write failure) rolls the whole thing back.
func (s *StoreService) Purchase(userID, itemID string) (*models.StoreTransaction, error) {
	item, err := s.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive {
		return nil, fmt.Errorf("item is not available for purchase: %w", ErrInvalidState)
	}

	var txn models.StoreTransaction
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := s.Ledger.Debit(tx, userID, item.Cost); err != nil {
			return err
		}

		txn = models.StoreTransaction{
			UserID: userID,
			ItemID: item.ID,
			Amount: item.Cost,
			Status: models.TransactionPending,
		}
		return tx.Create(&txn).Error
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// ListTransactions returns transactions, optionally filtered by status
// (admin review queue) or by user (purchase history).
func (s *StoreService) ListTransactions(userID string, status models.TransactionStatus) ([]models.StoreTransaction, error) {
	query := s.DB.Order("created_at DESC")
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var txns []models.StoreTransaction
	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// ApproveTransaction finalizes a PENDING purchase. The bounty was already
// debited at purchase time, so this only flips the status.
func (s *StoreService) ApproveTransaction(txnID, reviewerID string) (*models.StoreTransaction, error) {
	txn, err := s.reviewTransaction(txnID, reviewerID, models.TransactionApproved, "")
	if err != nil {
		return nil, err
	}

	s.Notifier.Emit(txn.UserID, models.NotificationPurchaseApproved,
		"Purchase approved",
		fmt.Sprintf("Your purchase of %d bounty was approved.", txn.Amount),
		map[string]interface{}{"transaction_id": txn.ID, "item_id": txn.ItemID})

	return txn, nil
}

// RejectTransaction cancels a PENDING purchase and refunds the debit in the
// same transaction as the status flip.
func (s *StoreService) RejectTransaction(txnID, reviewerID, notes string) (*models.StoreTransaction, error) {
	txn, err := s.reviewTransaction(txnID, reviewerID, models.TransactionRejected, notes)
	if err != nil {
		return nil, err
	}

	s.Notifier.Emit(txn.UserID, models.NotificationPurchaseRejected,
		"Purchase rejected",
		fmt.Sprintf("Your purchase was rejected and %d bounty refunded.", txn.Amount),
		map[string]interface{}{"transaction_id": txn.ID, "item_id": txn.ItemID, "notes": notes})

	return txn, nil
}

func (s *StoreService) reviewTransaction(txnID, reviewerID string, verdict models.TransactionStatus, notes string) (*models.StoreTransaction, error) {
	var txn models.StoreTransaction

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", txnID).First(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("transaction %s: %w", txnID, ErrNotFound)
			}
			return fmt.Errorf("review transaction: %w: %v", ErrStoreUnavailable, err)
		}
		if txn.Status != models.TransactionPending {
			return fmt.Errorf("transaction is not pending review: %w", ErrInvalidState)
		}

		if verdict == models.TransactionRejected {
			if _, err := s.Ledger.Credit(tx, txn.UserID, txn.Amount); err != nil {
				return err
			}
		}

		now := s.Clock.Now().UTC()
		txn.Status = verdict
		txn.ReviewedBy = &reviewerID
		txn.ReviewedAt = &now
		txn.Notes = notes
		return tx.Save(&txn).Error
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// CountPendingTransactions feeds the admin-notification sweep.
func (s *StoreService) CountPendingTransactions() (int64, error) {
	var count int64
	err := s.DB.Model(&models.StoreTransaction{}).
		Where("status = ?", models.TransactionPending).
		Count(&count).Error
	return count, err
}
