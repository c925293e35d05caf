package model

import (
	"time"

	"github.com/finance-tracker/ledgersync/internal/domain/entity"
)

// CategoryModel represents the local categories table. ParentID references
// another category of the same owner.
type CategoryModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	OwnerID   int64     `gorm:"not null;index"`
	RemoteID  *int64    `gorm:"index"`
	ParentID  *int64    `gorm:"index"`
	Name      string    `gorm:"type:varchar(50);not null"`
	Type      string    `gorm:"type:varchar(10);not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Owner *UserModel `gorm:"foreignKey:OwnerID;references:ID"`
}

// TableName returns the table name for the CategoryModel.
func (CategoryModel) TableName() string {
	return "categories"
}

// ToEntity converts a CategoryModel to a domain Category entity.
func (m *CategoryModel) ToEntity() *entity.Category {
	return &entity.Category{
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		RemoteID:  m.RemoteID,
		ParentID:  m.ParentID,
		Name:      m.Name,
		Type:      entity.CategoryType(m.Type),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// CategoryFromEntity creates a CategoryModel from a domain Category entity.
func CategoryFromEntity(category *entity.Category) *CategoryModel {
	return &CategoryModel{
		ID:        category.ID,
		OwnerID:   category.OwnerID,
		RemoteID:  category.RemoteID,
		ParentID:  category.ParentID,
		Name:      category.Name,
		Type:      string(category.Type),
		CreatedAt: category.CreatedAt,
		UpdatedAt: category.UpdatedAt,
	}
}
