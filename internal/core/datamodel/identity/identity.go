package identity

import "time"

type Identity struct {
	ID         int64     `gorm:"primaryKey"`
	ExternalID string    `gorm:"column:external_id;uniqueIndex;not null"`
	Email      string    `gorm:"column:email;uniqueIndex;not null"`
	Name       string    `gorm:"column:name;not null"`
	Role       string    `gorm:"column:role;not null"`
	IsActive   bool      `gorm:"column:is_active;not null"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (Identity) TableName() string {
	return "identities"
}
