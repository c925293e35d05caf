// Package valueobject contains domain value objects for the sync engine.
package valueobject

import (
	"fmt"
	"strings"
)

// EntityKind identifies a remote table family handled by the sync engine.
type EntityKind string

const (
	EntityKindUser        EntityKind = "user"
	EntityKindAccount     EntityKind = "account"
	EntityKindCategory    EntityKind = "category"
	EntityKindTransaction EntityKind = "transaction"
)

// IsValid reports whether the kind is one the remote store knows about.
func (k EntityKind) IsValid() bool {
	switch k {
	case EntityKindUser, EntityKindAccount, EntityKindCategory, EntityKindTransaction:
		return true
	}
	return false
}

// KeyField is a single column/value pair of a natural key.
type KeyField struct {
	Column string
	Value  any
}

// NaturalKey is the business-meaningful field combination that identifies a
// remote row independently of generated ids. Field order is significant and
// matches the remote unique index.
type NaturalKey struct {
	Kind   EntityKind
	Fields []KeyField
}

// NewNaturalKey creates a NaturalKey for the given kind.
func NewNaturalKey(kind EntityKind, fields ...KeyField) NaturalKey {
	return NaturalKey{Kind: kind, Fields: fields}
}

// Conditions returns the key as a column/value map usable as a query predicate.
func (k NaturalKey) Conditions() map[string]any {
	conds := make(map[string]any, len(k.Fields))
	for _, f := range k.Fields {
		conds[f.Column] = f.Value
	}
	return conds
}

// String renders the key for logs, e.g. account(owner_id=3, name=Cash, type=CASH).
func (k NaturalKey) String() string {
	parts := make([]string, len(k.Fields))
	for i, f := range k.Fields {
		parts[i] = fmt.Sprintf("%s=%v", f.Column, f.Value)
	}
	return fmt.Sprintf("%s(%s)", k.Kind, strings.Join(parts, ", "))
}
