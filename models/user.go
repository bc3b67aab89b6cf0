package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole controls what a caller may do; enforced by the gateway/middleware
// layer, not by the services themselves.
type UserRole string

const (
	RoleAdmin  UserRole = "ADMIN"
	RoleEditor UserRole = "EDITOR"
	RolePlayer UserRole = "PLAYER"
)

// User holds identity plus the reward ledger columns. Level is derived from
// Experience (see services/leveling.go) and never stored.
type User struct {
	ID       string   `gorm:"primaryKey;type:uuid" json:"id"`
	Username string   `gorm:"uniqueIndex;not null" json:"username"`
	Email    string   `gorm:"uniqueIndex;not null" json:"email"`
	Role     UserRole `gorm:"not null;default:'PLAYER'" json:"role"`

	// Ledger columns, mutated only inside LedgerService transactions.
	BountyBalance int `gorm:"not null;default:0" json:"bounty_balance"`
	Experience    int `gorm:"not null;default:0" json:"experience"`

	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times plus soft delete.
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
