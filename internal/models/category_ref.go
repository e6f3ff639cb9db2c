package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CategoryOtherValue is the sentinel stored for uncategorized expenses.
const CategoryOtherValue = "other"

// CategoryRef is either a reference to a Category or the "other" sentinel.
// The zero value is Other.
type CategoryRef struct {
	id uuid.UUID
}

// CategoryOther returns the "other" sentinel.
func CategoryOther() CategoryRef {
	return CategoryRef{}
}

// CategoryID returns a reference to the category with the given id.
func CategoryID(id uuid.UUID) CategoryRef {
	return CategoryRef{id: id}
}

// ParseCategoryRef parses "other" (any case) or a category UUID.
func ParseCategoryRef(s string) (CategoryRef, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, CategoryOtherValue) {
		return CategoryOther(), nil
	}
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return CategoryRef{}, fmt.Errorf("invalid category %q", s)
	}
	return CategoryID(id), nil
}

// IsOther reports whether this is the sentinel.
func (c CategoryRef) IsOther() bool {
	return c.id == uuid.Nil
}

// ID returns the referenced category id.
func (c CategoryRef) ID() (uuid.UUID, bool) {
	return c.id, c.id != uuid.Nil
}

// Ptr returns the referenced id for nullable storage, nil for Other.
func (c CategoryRef) Ptr() *uuid.UUID {
	if c.IsOther() {
		return nil
	}
	id := c.id
	return &id
}

// CategoryFromPtr is the inverse of Ptr.
func CategoryFromPtr(id *uuid.UUID) CategoryRef {
	if id == nil {
		return CategoryOther()
	}
	return CategoryID(*id)
}

func (c CategoryRef) String() string {
	if c.IsOther() {
		return CategoryOtherValue
	}
	return c.id.String()
}

// MarshalJSON renders the id string or "other".
func (c CategoryRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts the forms produced by MarshalJSON.
func (c *CategoryRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("category must be a string: %w", err)
	}
	ref, err := ParseCategoryRef(s)
	if err != nil {
		return err
	}
	*c = ref
	return nil
}
