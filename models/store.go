package models

import "time"

// StoreItem is something a player can spend bounty on.
type StoreItem struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	ImageURL    string `gorm:"type:text" json:"image_url,omitempty"`
	Cost        int    `gorm:"not null" json:"cost"`
	IsActive    bool   `gorm:"default:true;index" json:"is_active"`
	CreatedBy   string `gorm:"not null" json:"created_by"`

	Timestamps
}

// TransactionStatus tracks admin review of a purchase.
type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "PENDING"
	TransactionApproved TransactionStatus = "APPROVED"
	TransactionRejected TransactionStatus = "REJECTED"
)

// StoreTransaction records a purchase. The bounty debit happens at purchase
// time; a rejection refunds it. Amount is the cost at time of purchase, so
// later price edits never change what gets refunded.
type StoreTransaction struct {
	ID     string            `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string            `gorm:"index;not null" json:"user_id"`
	ItemID string            `gorm:"index;not null" json:"item_id"`
	Amount int               `gorm:"not null" json:"amount"`
	Status TransactionStatus `gorm:"not null;default:'PENDING';index" json:"status"`

	ReviewedBy *string    `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	Notes      string     `gorm:"type:text" json:"notes,omitempty"`

	Timestamps
}
