package services

import (
	"errors"
	"fmt"

	"quest-board/models"

	"gorm.io/gorm"
)

// UserService is the thin user-management layer. Roles come from the gateway
// on each request; this service just keeps the rows the ledger mutates.
type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

func (s *UserService) GetUser(userID string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) ListUsers(limit int) ([]models.User, error) {
	if limit < 1 || limit > 200 {
		limit = 100
	}
	var users []models.User
	if err := s.DB.Order("created_at ASC").Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// EnsureUser creates the row for a gateway-authenticated user on first
// contact (idempotent).
func (s *UserService) EnsureUser(userID, username, email string) (*models.User, error) {
	user, err := s.GetUser(userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	created := models.User{
		ID:       userID,
		Username: username,
		Email:    email,
		Role:     models.RolePlayer,
	}
	if err := s.DB.Create(&created).Error; err != nil {
		return nil, fmt.Errorf("ensure user: %w: %v", ErrStoreUnavailable, err)
	}
	return &created, nil
}

// UpdateRole changes a user's role (admin-gated at the route level).
func (s *UserService) UpdateRole(userID string, role models.UserRole) (*models.User, error) {
	switch role {
	case models.RoleAdmin, models.RoleEditor, models.RolePlayer:
	default:
		return nil, fmt.Errorf("unknown role %q: %w", role, ErrInvalidState)
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := s.DB.Save(user).Error; err != nil {
		return nil, fmt.Errorf("update role: %w: %v", ErrStoreUnavailable, err)
	}
	return user, nil
}

// Progress is the derived leveling view of a user.
type Progress struct {
	User          *models.User `json:"user"`
	Level         int          `json:"level"`
	Experience    int          `json:"experience"`
	NextLevelXP   int          `json:"next_level_xp"`
	LevelProgress float64      `json:"level_progress"`
}

// GetProgress assembles the leveling view for the profile endpoint.
func (s *UserService) GetProgress(userID string) (*Progress, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	level := CalculateLevel(user.Experience)
	return &Progress{
		User:          user,
		Level:         level,
		Experience:    user.Experience,
		NextLevelXP:   ExperienceForLevel(level + 1),
		LevelProgress: ProgressToNextLevel(user.Experience),
	}, nil
}

// ListAdmins feeds the admin-notification sweep.
func (s *UserService) ListAdmins() ([]models.User, error) {
	var admins []models.User
	if err := s.DB.Where("role = ?", models.RoleAdmin).Find(&admins).Error; err != nil {
		return nil, err
	}
	return admins, nil
}
