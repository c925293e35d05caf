package entity

import "time"

// CategoryType represents the type of category (income or expense).
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "INCOME"
	CategoryTypeExpense CategoryType = "EXPENSE"
)

// IsValid reports whether t is a known category type.
func (t CategoryType) IsValid() bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

// Category is a locally stored category. ParentID, when set, points to a
// category of the same owner and the same type.
type Category struct {
	ID        int64
	OwnerID   int64
	RemoteID  *int64
	ParentID  *int64
	Name      string
	Type      CategoryType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCategory creates a new, unmapped Category entity.
func NewCategory(ownerID int64, parentID *int64, name string, categoryType CategoryType) *Category {
	now := time.Now().UTC()

	return &Category{
		OwnerID:   ownerID,
		ParentID:  parentID,
		Name:      name,
		Type:      categoryType,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// IsMapped reports whether the category already carries a remote id.
func (c *Category) IsMapped() bool {
	return c.RemoteID != nil
}
