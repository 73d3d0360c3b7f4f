package models

import (
	"time"
)

type User struct {
	Email     string    `json:"email" gorm:"primaryKey;type:text"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:text;not null"`
	FirstName string    `json:"first_name" gorm:"type:text"`
	LastName  string    `json:"last_name" gorm:"type:text"`
	Password  string    `json:"-" gorm:"type:text;not null"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:false"`
	CDate     time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate     time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

type Group struct {
	ID    string    `json:"id" gorm:"primaryKey;type:text"`
	Name  string    `json:"name" gorm:"type:text;not null"`
	CDate time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

// GroupMember is one role assignment. The composite key keeps a user from
// ever holding two roles in the same group.
type GroupMember struct {
	GroupID  string    `json:"group_id" gorm:"primaryKey;type:text"`
	Email    string    `json:"email" gorm:"primaryKey;type:text"`
	Username string    `json:"username" gorm:"type:text"`
	Role     string    `json:"role" gorm:"type:text;not null"`
	CDate    time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Token struct {
	Token        string     `json:"token" gorm:"primaryKey;type:text"`
	Subject      string     `json:"subject" gorm:"type:text;not null"`
	Email        string     `json:"email" gorm:"type:text;not null"`
	Username     string     `json:"username" gorm:"type:text"`
	GroupID      *string    `json:"group_id" gorm:"type:text"`
	InvitedEmail *string    `json:"invited_email" gorm:"type:text"`
	IssuedAt     time.Time  `json:"issued_at" gorm:"type:timestamp with time zone;not null"`
	ExpiresAt    time.Time  `json:"expires_at" gorm:"type:timestamp with time zone;not null"`
	UsedAt       *time.Time `json:"used_at" gorm:"type:timestamp with time zone"`
}
