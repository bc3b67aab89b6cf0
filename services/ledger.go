package services

import (
	"errors"
	"fmt"

	"quest-board/models"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// LedgerService applies bounty/experience deltas to user rows. Every method
// takes the *gorm.DB to run against, so callers can pass an open transaction
// and make the ledger change atomic with their own writes (quest status flip,
// store transaction row). Pass s.DB for a standalone mutation.
type LedgerService struct {
	DB    *gorm.DB
	Clock clockwork.Clock
}

func NewLedgerService(db *gorm.DB, clock clockwork.Clock) *LedgerService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LedgerService{DB: db, Clock: clock}
}

// CreditApproval pays out a quest approval: bounty and experience land on the
// user in one update. Returns the updated user so the caller can compute
// level-up effects.
func (s *LedgerService) CreditApproval(tx *gorm.DB, userID string, bounty, experience int) (*models.User, error) {
	var user models.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("credit approval: user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("credit approval: %w: %v", ErrStoreUnavailable, err)
	}

	oldXP := user.Experience
	user.BountyBalance += bounty
	user.Experience += experience
	if CheckLevelUp(oldXP, user.Experience) {
		now := s.Clock.Now().UTC()
		user.LastLevelUpAt = &now
	}

	if err := tx.Save(&user).Error; err != nil {
		return nil, fmt.Errorf("credit approval: %w: %v", ErrStoreUnavailable, err)
	}
	return &user, nil
}

// Debit removes bounty from a user's balance, failing with
// ErrInsufficientFunds rather than letting the balance go negative.
func (s *LedgerService) Debit(tx *gorm.DB, userID string, amount int) (*models.User, error) {
	var user models.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("debit: user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("debit: %w: %v", ErrStoreUnavailable, err)
	}

	if user.BountyBalance < amount {
		return nil, fmt.Errorf("debit %d from balance %d: %w", amount, user.BountyBalance, ErrInsufficientFunds)
	}

	user.BountyBalance -= amount
	if err := tx.Save(&user).Error; err != nil {
		return nil, fmt.Errorf("debit: %w: %v", ErrStoreUnavailable, err)
	}
	return &user, nil
}

// Credit adds bounty unconditionally (refunds).
func (s *LedgerService) Credit(tx *gorm.DB, userID string, amount int) (*models.User, error) {
	var user models.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("credit: user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("credit: %w: %v", ErrStoreUnavailable, err)
	}

	user.BountyBalance += amount
	if err := tx.Save(&user).Error; err != nil {
		return nil, fmt.Errorf("credit: %w: %v", ErrStoreUnavailable, err)
	}
	return &user, nil
}
