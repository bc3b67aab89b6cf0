package models

import "time"

// NotificationType is the closed set of event kinds the backend emits.
type NotificationType string

const (
	NotificationQuestClaimed        NotificationType = "QUEST_CLAIMED"
	NotificationQuestCompleted      NotificationType = "QUEST_COMPLETED"
	NotificationQuestApproved       NotificationType = "QUEST_APPROVED"
	NotificationQuestRejected       NotificationType = "QUEST_REJECTED"
	NotificationLevelUp             NotificationType = "LEVEL_UP"
	NotificationPurchaseApproved    NotificationType = "PURCHASE_APPROVED"
	NotificationPurchaseRejected    NotificationType = "PURCHASE_REJECTED"
	NotificationAdminApprovalNeeded NotificationType = "ADMIN_APPROVAL_NEEDED"
)

// Notification is a persisted user-facing event. Data carries optional
// structured payload (quest id, bounty, level, counts) as JSON.
type Notification struct {
	ID      string           `gorm:"primaryKey;type:uuid" json:"id"`
	UserID  string           `gorm:"index;not null" json:"user_id"`
	Type    NotificationType `gorm:"not null" json:"type"`
	Title   string           `gorm:"not null" json:"title"`
	Message string           `gorm:"type:text" json:"message"`
	Data    *string          `gorm:"type:text" json:"data,omitempty"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
