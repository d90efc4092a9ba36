package models

// Counterparty is a named person the user tracks debts against.
type Counterparty struct {
	Base
	UserID string `gorm:"not null;index" json:"user_id"`
	Name   string `gorm:"not null" json:"name"`
}
