package models

import (
	"time"

	"gorm.io/gorm"
)

// StationUser is an operator account bound to a shop-floor station
type StationUser struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Username  string     `gorm:"unique;not null" json:"username"`
	Password  string     `gorm:"not null" json:"-"`
	Station   string     `gorm:"not null" json:"station"`
	Role      string     `gorm:"default:'operator'" json:"role"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for StationUser model
func (StationUser) TableName() string {
	return "station_users"
}
