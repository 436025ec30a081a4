package models

import "time"

// User roles recognised by the directory.
const (
	RoleSubject   = "subject"
	RoleGuardian  = "guardian"
	RoleResponder = "responder"
)

// User is the directory profile subset the realtime layer needs. Account
// management lives in a separate service; this table is read-only here.
type User struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:128" json:"name"`
	Role      string    `gorm:"size:32;default:subject" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
