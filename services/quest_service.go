package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"quest-board/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// ClaimExpiryWindow is how long a claim may sit without completion before a
// sweep returns the quest to the board.
const ClaimExpiryWindow = 48 * time.Hour

// QuestService owns the quest lifecycle:
//
//	AVAILABLE → CLAIMED → COMPLETED → APPROVED | REJECTED
//	(repeatable) approval → COOLDOWN → AVAILABLE
//
// Multi-step transitions (approve = ledger credit + status flip + audit row)
// run inside one DB transaction. Notifications are emitted after commit and
// never fail a transition.
type QuestService struct {
	DB       *gorm.DB
	Ledger   *LedgerService
	Notifier *NotificationService
	Clock    clockwork.Clock
}

func NewQuestService(db *gorm.DB, ledger *LedgerService, notifier *NotificationService, clock clockwork.Clock) *QuestService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &QuestService{DB: db, Ledger: ledger, Notifier: notifier, Clock: clock}
}

// --- CRUD ---

// CreateQuestInput is the validated shape for quest creation.
type CreateQuestInput struct {
	Title        string
	Description  string
	ImageURL     string
	Bounty       int
	IsRepeatable bool
	CooldownDays *int
}

// CreateQuest validates and inserts a new quest in AVAILABLE status.
func (s *QuestService) CreateQuest(creatorID string, in CreateQuestInput) (*models.Quest, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrInvalidState)
	}
	if in.Bounty <= 0 {
		return nil, fmt.Errorf("bounty must be positive: %w", ErrInvalidState)
	}
	if in.IsRepeatable && (in.CooldownDays == nil || *in.CooldownDays <= 0) {
		return nil, fmt.Errorf("repeatable quests require a positive cooldown_days: %w", ErrInvalidState)
	}

	questSlug := slug.Make(in.Title)
	var taken int64
	if err := s.DB.Model(&models.Quest{}).Where("slug = ?", questSlug).Count(&taken).Error; err != nil {
		return nil, fmt.Errorf("create quest: %w: %v", ErrStoreUnavailable, err)
	}
	if taken > 0 {
		// Duplicate titles are allowed; keep the slug unique with a short suffix.
		questSlug = fmt.Sprintf("%s-%s", questSlug, uuid.NewString()[:8])
	}

	quest := models.Quest{
		Title:        in.Title,
		Slug:         questSlug,
		Description:  in.Description,
		ImageURL:     in.ImageURL,
		Bounty:       in.Bounty,
		Status:       models.QuestStatusAvailable,
		CreatedBy:    creatorID,
		IsRepeatable: in.IsRepeatable,
		CooldownDays: in.CooldownDays,
	}
	if err := s.DB.Create(&quest).Error; err != nil {
		return nil, fmt.Errorf("create quest: %w: %v", ErrStoreUnavailable, err)
	}
	return &quest, nil
}

// ListQuests returns quests, optionally filtered by status, newest first.
func (s *QuestService) ListQuests(status models.QuestStatus, limit int) ([]models.Quest, error) {
	if limit < 1 || limit > 200 {
		limit = 100
	}
	query := s.DB.Order("created_at DESC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var quests []models.Quest
	if err := query.Find(&quests).Error; err != nil {
		return nil, err
	}
	return quests, nil
}

// GetQuest fetches one quest by ID.
func (s *QuestService) GetQuest(questID string) (*models.Quest, error) {
	var quest models.Quest
	if err := s.DB.Where("id = ?", questID).First(&quest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quest %s: %w", questID, ErrNotFound)
		}
		return nil, err
	}
	return &quest, nil
}

// UpdateQuestInput carries optional field updates (nil = leave alone).
type UpdateQuestInput struct {
	Title        *string
	Description  *string
	ImageURL     *string
	Bounty       *int
	CooldownDays *int
}

// UpdateQuest edits quest metadata. Lifecycle fields (status, claimant,
// timestamps) are only ever touched by the transition methods below.
func (s *QuestService) UpdateQuest(questID string, in UpdateQuestInput) (*models.Quest, error) {
	quest, err := s.GetQuest(questID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		quest.Title = *in.Title
		quest.Slug = slug.Make(*in.Title)
	}
	if in.Description != nil {
		quest.Description = *in.Description
	}
	if in.ImageURL != nil {
		quest.ImageURL = *in.ImageURL
	}
	if in.Bounty != nil {
		if *in.Bounty <= 0 {
			return nil, fmt.Errorf("bounty must be positive: %w", ErrInvalidState)
		}
		quest.Bounty = *in.Bounty
	}
	if in.CooldownDays != nil {
		if quest.IsRepeatable && *in.CooldownDays <= 0 {
			return nil, fmt.Errorf("repeatable quests require a positive cooldown_days: %w", ErrInvalidState)
		}
		quest.CooldownDays = in.CooldownDays
	}

	if err := s.DB.Save(quest).Error; err != nil {
		return nil, fmt.Errorf("update quest: %w: %v", ErrStoreUnavailable, err)
	}
	return quest, nil
}

// DeleteQuest soft-deletes a quest.
func (s *QuestService) DeleteQuest(questID string) error {
	quest, err := s.GetQuest(questID)
	if err != nil {
		return err
	}
	return s.DB.Delete(quest).Error
}

// --- Transitions ---

// ClaimQuest reserves an AVAILABLE quest for userID. The status flip is a
// conditional update, so two concurrent claims can never both win.
func (s *QuestService) ClaimQuest(questID, userID string) (*models.Quest, error) {
	quest, err := s.GetQuest(questID)
	if err != nil {
		return nil, err
	}
	if quest.Status != models.QuestStatusAvailable {
		return nil, fmt.Errorf("quest is not available for claiming: %w", ErrInvalidState)
	}

	now := s.Clock.Now().UTC()
	result := s.DB.Model(&models.Quest{}).
		Where("id = ? AND status = ?", questID, models.QuestStatusAvailable).
		Updates(map[string]interface{}{
			"status":     models.QuestStatusClaimed,
			"claimed_by": userID,
			"claimed_at": now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("claim quest: %w: %v", ErrStoreUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		// Lost the race to another claimant between the read and the update.
		return nil, fmt.Errorf("quest is not available for claiming: %w", ErrInvalidState)
	}

	quest.Status = models.QuestStatusClaimed
	quest.ClaimedBy = &userID
	quest.ClaimedAt = &now

	s.Notifier.Emit(quest.CreatedBy, models.NotificationQuestClaimed,
		"Quest claimed",
		fmt.Sprintf("Your quest %q was claimed.", quest.Title),
		map[string]interface{}{"quest_id": quest.ID, "claimed_by": userID})

	return quest, nil
}

// CompleteQuest marks a claimed quest finished by its claimant.
func (s *QuestService) CompleteQuest(questID, userID string) (*models.Quest, error) {
	quest, err := s.GetQuest(questID)
	if err != nil {
		return nil, err
	}
	if quest.Status != models.QuestStatusClaimed || quest.ClaimedBy == nil || *quest.ClaimedBy != userID {
		return nil, fmt.Errorf("quest is not claimed by you: %w", ErrForbidden)
	}

	now := s.Clock.Now().UTC()
	quest.Status = models.QuestStatusCompleted
	quest.CompletedAt = &now
	if err := s.DB.Save(quest).Error; err != nil {
		return nil, fmt.Errorf("complete quest: %w: %v", ErrStoreUnavailable, err)
	}

	s.Notifier.Emit(quest.CreatedBy, models.NotificationQuestCompleted,
		"Quest completed",
		fmt.Sprintf("Quest %q is awaiting your review.", quest.Title),
		map[string]interface{}{"quest_id": quest.ID, "completed_by": userID})

	return quest, nil
}

// ApproveQuest reviews a COMPLETED quest, paying the claimant bounty and
// experience. The ledger credit, status flip and approval audit row are one
// transaction: if any part fails the quest stays COMPLETED and nothing is
// credited. Repeatable quests enter COOLDOWN measured from CompletedAt (when
// the work was done, not when it was reviewed); others land on APPROVED.
func (s *QuestService) ApproveQuest(questID, approverID string) (*models.Quest, error) {
	var quest models.Quest
	var claimant *models.User
	var oldXP, experience int

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", questID).First(&quest).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("quest %s: %w", questID, ErrNotFound)
			}
			return fmt.Errorf("approve quest: %w: %v", ErrStoreUnavailable, err)
		}
		if quest.Status != models.QuestStatusCompleted {
			return fmt.Errorf("quest is not completed: %w", ErrInvalidState)
		}
		if quest.ClaimedBy == nil {
			return fmt.Errorf("quest has no claimant: %w", ErrInvalidState)
		}

		experience = CalculateQuestExperience(quest.Bounty)

		user, err := s.Ledger.CreditApproval(tx, *quest.ClaimedBy, quest.Bounty, experience)
		if err != nil {
			return err
		}
		claimant = user
		oldXP = user.Experience - experience

		if quest.IsRepeatable {
			quest.Status = models.QuestStatusCooldown
			quest.LastCompletedAt = quest.CompletedAt
		} else {
			quest.Status = models.QuestStatusApproved
		}
		if err := tx.Save(&quest).Error; err != nil {
			return fmt.Errorf("approve quest: %w: %v", ErrStoreUnavailable, err)
		}

		approval := models.QuestApproval{
			QuestID:    quest.ID,
			ClaimantID: *quest.ClaimedBy,
			ReviewerID: approverID,
			Approved:   true,
			Bounty:     quest.Bounty,
			Experience: experience,
		}
		if err := tx.Create(&approval).Error; err != nil {
			return fmt.Errorf("approve quest: %w: %v", ErrStoreUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	level := CalculateLevel(claimant.Experience)
	s.Notifier.Emit(*quest.ClaimedBy, models.NotificationQuestApproved,
		"Quest approved",
		fmt.Sprintf("Quest %q was approved. You earned %d bounty and %d XP.", quest.Title, quest.Bounty, experience),
		map[string]interface{}{
			"quest_id":   quest.ID,
			"bounty":     quest.Bounty,
			"experience": experience,
			"level":      level,
		})

	if CheckLevelUp(oldXP, claimant.Experience) {
		s.Notifier.Emit(*quest.ClaimedBy, models.NotificationLevelUp,
			"Level up!",
			fmt.Sprintf("You reached level %d.", level),
			map[string]interface{}{"level": level})
	}

	return &quest, nil
}

// RejectQuest sends a COMPLETED quest to REJECTED. No ledger movement.
// REJECTED is terminal even for repeatable quests: only a fresh quest (or
// manual data surgery) brings the work back.
func (s *QuestService) RejectQuest(questID, rejecterID, notes string) (*models.Quest, error) {
	var quest models.Quest

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", questID).First(&quest).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("quest %s: %w", questID, ErrNotFound)
			}
			return fmt.Errorf("reject quest: %w: %v", ErrStoreUnavailable, err)
		}
		if quest.Status != models.QuestStatusCompleted {
			return fmt.Errorf("quest is not completed: %w", ErrInvalidState)
		}

		quest.Status = models.QuestStatusRejected
		if err := tx.Save(&quest).Error; err != nil {
			return fmt.Errorf("reject quest: %w: %v", ErrStoreUnavailable, err)
		}

		if quest.ClaimedBy != nil {
			approval := models.QuestApproval{
				QuestID:    quest.ID,
				ClaimantID: *quest.ClaimedBy,
				ReviewerID: rejecterID,
				Approved:   false,
				Notes:      notes,
				Bounty:     quest.Bounty,
			}
			if err := tx.Create(&approval).Error; err != nil {
				return fmt.Errorf("reject quest: %w: %v", ErrStoreUnavailable, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if quest.ClaimedBy != nil {
		message := fmt.Sprintf("Quest %q was rejected.", quest.Title)
		if notes != "" {
			message = fmt.Sprintf("Quest %q was rejected: %s", quest.Title, notes)
		}
		s.Notifier.Emit(*quest.ClaimedBy, models.NotificationQuestRejected,
			"Quest rejected", message,
			map[string]interface{}{"quest_id": quest.ID, "notes": notes})
	}

	return &quest, nil
}

// ResetQuest returns a repeatable quest from COOLDOWN to AVAILABLE ahead of
// schedule, clearing LastCompletedAt. Admin-only; the role gate lives in the
// middleware layer.
func (s *QuestService) ResetQuest(questID string) (*models.Quest, error) {
	quest, err := s.GetQuest(questID)
	if err != nil {
		return nil, err
	}
	if !quest.IsRepeatable {
		return nil, fmt.Errorf("only repeatable quests can be reset: %w", ErrInvalidState)
	}
	if quest.Status != models.QuestStatusCooldown {
		return nil, fmt.Errorf("quest is not in cooldown status: %w", ErrInvalidState)
	}

	result := s.DB.Model(&models.Quest{}).
		Where("id = ?", questID).
		Updates(map[string]interface{}{
			"status":            models.QuestStatusAvailable,
			"last_completed_at": nil,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("reset quest: %w: %v", ErrStoreUnavailable, result.Error)
	}

	quest.Status = models.QuestStatusAvailable
	quest.LastCompletedAt = nil
	return quest, nil
}

// --- Sweeps (scheduler entry points) ---

// SweepClaimExpiry releases quests whose claim has sat longer than
// ClaimExpiryWindow without completion. Each row is its own conditional
// update, so one failure never blocks the rest. Returns how many were freed.
func (s *QuestService) SweepClaimExpiry() (int, error) {
	cutoff := s.Clock.Now().UTC().Add(-ClaimExpiryWindow)

	var stale []models.Quest
	if err := s.DB.Where("status = ? AND claimed_at < ?", models.QuestStatusClaimed, cutoff).
		Find(&stale).Error; err != nil {
		return 0, fmt.Errorf("claim expiry sweep: %w: %v", ErrStoreUnavailable, err)
	}

	freed := 0
	for _, quest := range stale {
		result := s.DB.Model(&models.Quest{}).
			Where("id = ? AND status = ?", quest.ID, models.QuestStatusClaimed).
			Updates(map[string]interface{}{
				"status":     models.QuestStatusAvailable,
				"claimed_by": nil,
				"claimed_at": nil,
			})
		if result.Error != nil {
			log.Printf("❌ [Sweep] Failed to release expired claim on quest %s: %v", quest.ID, result.Error)
			continue
		}
		if result.RowsAffected > 0 {
			freed++
			log.Printf("♻️ [Sweep] Released expired claim on quest %s (%s)", quest.ID, quest.Title)
		}
	}
	return freed, nil
}

// SweepCooldownExpiry moves repeatable quests out of COOLDOWN once
// LastCompletedAt + CooldownDays calendar days has passed. LastCompletedAt is
// intentionally left set here; only an explicit reset clears it.
func (s *QuestService) SweepCooldownExpiry() (int, error) {
	now := s.Clock.Now().UTC()

	var cooling []models.Quest
	if err := s.DB.Where(
		"status = ? AND is_repeatable = ? AND last_completed_at IS NOT NULL AND cooldown_days IS NOT NULL",
		models.QuestStatusCooldown, true,
	).Find(&cooling).Error; err != nil {
		return 0, fmt.Errorf("cooldown sweep: %w: %v", ErrStoreUnavailable, err)
	}

	reopened := 0
	for _, quest := range cooling {
		cooldownEnd := quest.LastCompletedAt.AddDate(0, 0, *quest.CooldownDays)
		if now.Before(cooldownEnd) {
			continue
		}

		result := s.DB.Model(&models.Quest{}).
			Where("id = ? AND status = ?", quest.ID, models.QuestStatusCooldown).
			Update("status", models.QuestStatusAvailable)
		if result.Error != nil {
			log.Printf("❌ [Sweep] Failed to reopen quest %s after cooldown: %v", quest.ID, result.Error)
			continue
		}
		if result.RowsAffected > 0 {
			reopened++
			log.Printf("♻️ [Sweep] Quest %s (%s) back on the board after cooldown", quest.ID, quest.Title)
		}
	}
	return reopened, nil
}
