package models

import (
	"time"
)

// User represents a venue account with a spendable cash balance.
// All currency amounts are integer cents.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Phone        string    `db:"phone"`
	Balance      int64     `db:"balance"`
	IsAdmin      bool      `db:"is_admin"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
