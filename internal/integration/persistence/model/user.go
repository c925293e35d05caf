// Package model defines database models for persistence layer.
package model

import (
	"time"

	"github.com/finance-tracker/ledgersync/internal/domain/entity"
)

// UserModel represents the local users table.
type UserModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	RemoteID    *int64    `gorm:"index"`
	Email       string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	DisplayName string    `gorm:"type:varchar(100);not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for the UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToEntity converts a UserModel to a domain User entity.
func (m *UserModel) ToEntity() *entity.User {
	return &entity.User{
		ID:          m.ID,
		RemoteID:    m.RemoteID,
		Email:       m.Email,
		DisplayName: m.DisplayName,
	}
}

// UserFromEntity creates a UserModel from a domain User entity.
func UserFromEntity(user *entity.User) *UserModel {
	return &UserModel{
		ID:          user.ID,
		RemoteID:    user.RemoteID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}
}
