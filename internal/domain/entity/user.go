// Package entity defines the core business entities for the domain layer.
package entity

// User is the local owner of accounts, categories and transactions.
type User struct {
	ID          int64
	RemoteID    *int64
	Email       string
	DisplayName string
}

// IsMapped reports whether the user already carries a remote id.
func (u *User) IsMapped() bool {
	return u.RemoteID != nil
}
