package models

import "time"

// QuestStatus is the quest lifecycle state.
//
//	AVAILABLE → CLAIMED → COMPLETED → APPROVED | REJECTED
//	(repeatable) approval → COOLDOWN → AVAILABLE
//
// REJECTED is terminal, including for repeatable quests.
type QuestStatus string

const (
	QuestStatusAvailable QuestStatus = "AVAILABLE"
	QuestStatusClaimed   QuestStatus = "CLAIMED"
	QuestStatusCompleted QuestStatus = "COMPLETED"
	QuestStatusApproved  QuestStatus = "APPROVED"
	QuestStatusRejected  QuestStatus = "REJECTED"
	QuestStatusCooldown  QuestStatus = "COOLDOWN"
)

// Quest is an admin-defined task carrying a bounty reward.
// ClaimedBy/ClaimedAt are both set or both null; CompletedAt is set from
// COMPLETED onward; CooldownDays is required when IsRepeatable.
type Quest struct {
	ID          string      `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string      `gorm:"not null" json:"title"`
	Slug        string      `gorm:"uniqueIndex;not null" json:"slug"`
	Description string      `gorm:"type:text" json:"description,omitempty"`
	ImageURL    string      `gorm:"type:text" json:"image_url,omitempty"`
	Bounty      int         `gorm:"not null" json:"bounty"`
	Status      QuestStatus `gorm:"not null;default:'AVAILABLE';index" json:"status"`

	CreatedBy   string     `gorm:"index;not null" json:"created_by"`
	ClaimedBy   *string    `gorm:"index" json:"claimed_by,omitempty"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	IsRepeatable    bool       `gorm:"default:false" json:"is_repeatable"`
	CooldownDays    *int       `json:"cooldown_days,omitempty"`
	LastCompletedAt *time.Time `json:"last_completed_at,omitempty"`

	Timestamps
}

// QuestApproval is the audit row written when a COMPLETED quest is reviewed.
// Old rows are purged by the cleanup-old-data job.
type QuestApproval struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	QuestID    string `gorm:"index;not null" json:"quest_id"`
	ClaimantID string `gorm:"index;not null" json:"claimant_id"`
	ReviewerID string `gorm:"not null" json:"reviewer_id"`
	Approved   bool   `json:"approved"`
	Notes      string `gorm:"type:text" json:"notes,omitempty"`
	Bounty     int    `json:"bounty"`
	Experience int    `json:"experience"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
