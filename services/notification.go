package services

import (
	"encoding/json"
	"errors"
	"log"

	"quest-board/models"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// NotificationService persists user-facing events and serves the read side
// of the notification API. Emission is fire-and-forget: a failed insert is
// logged and swallowed so it can never abort a quest transition.
type NotificationService struct {
	DB    *gorm.DB
	Clock clockwork.Clock
}

func NewNotificationService(db *gorm.DB, clock clockwork.Clock) *NotificationService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &NotificationService{DB: db, Clock: clock}
}

// Emit records a notification for userID. data, when non-nil, is stored as a
// JSON payload alongside the human-readable message.
func (s *NotificationService) Emit(userID string, kind models.NotificationType, title, message string, data map[string]interface{}) {
	n := models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
	}

	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			log.Printf("❌ [Notify] Failed to marshal payload for %s: %v", kind, err)
		} else {
			payload := string(raw)
			n.Data = &payload
		}
	}

	if err := s.DB.Create(&n).Error; err != nil {
		log.Printf("❌ [Notify] Failed to persist %s for user %s: %v", kind, userID, err)
		return
	}
	log.Printf("🔔 [Notify] %s → %s: %s", kind, userID, title)
}

// ListForUser returns a user's notifications, newest first, optionally only
// unread ones.
func (s *NotificationService) ListForUser(userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}

	query := s.DB.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// UnreadCount is cheap enough to poll.
func (s *NotificationService) UnreadCount(userID string) (int64, error) {
	var count int64
	err := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one notification read (idempotent). Fails with ErrNotFound
// if the notification does not exist or belongs to someone else.
func (s *NotificationService) MarkRead(notificationID, userID string) (*models.Notification, error) {
	var n models.Notification
	if err := s.DB.Where("id = ? AND user_id = ?", notificationID, userID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !n.IsRead {
		now := s.Clock.Now().UTC()
		n.IsRead = true
		n.ReadAt = &now
		if err := s.DB.Save(&n).Error; err != nil {
			return nil, err
		}
	}
	return &n, nil
}

// MarkAllRead marks every unread notification for the user, returning how
// many rows changed.
func (s *NotificationService) MarkAllRead(userID string) (int64, error) {
	now := s.Clock.Now().UTC()
	result := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	return result.RowsAffected, result.Error
}
