// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// UserID represents a unique user identifier (UUID format).
type UserID string

// IsValid checks if the user ID is a valid UUID.
func (u UserID) IsValid() bool {
	return uuidRegex.MatchString(string(u))
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.TrimSpace(id))
	if !uid.IsValid() {
		return "", WrapError("shared", "NewUserID", ErrInvalidID, "user ID must be a UUID", nil)
	}
	return uid, nil
}

// ModuleID represents a unique module identifier (UUID format).
type ModuleID string

// IsValid checks if the module ID is a valid UUID.
func (m ModuleID) IsValid() bool {
	return uuidRegex.MatchString(string(m))
}

// String returns the string representation.
func (m ModuleID) String() string {
	return string(m)
}

// NewModuleID creates a new ModuleID with validation.
func NewModuleID(id string) (ModuleID, error) {
	mid := ModuleID(strings.TrimSpace(id))
	if !mid.IsValid() {
		return "", WrapError("shared", "NewModuleID", ErrInvalidID, "module ID must be a UUID", nil)
	}
	return mid, nil
}

// TopicID represents a unique topic identifier (UUID format).
type TopicID string

// IsValid checks if the topic ID is a valid UUID.
func (t TopicID) IsValid() bool {
	return uuidRegex.MatchString(string(t))
}

// String returns the string representation.
func (t TopicID) String() string {
	return string(t)
}

// NewTopicID creates a new TopicID with validation.
func NewTopicID(id string) (TopicID, error) {
	tid := TopicID(strings.TrimSpace(id))
	if !tid.IsValid() {
		return "", WrapError("shared", "NewTopicID", ErrInvalidID, "topic ID must be a UUID", nil)
	}
	return tid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// Slug represents a URL-safe identifier for modules and topics.
type Slug string

// Regular expression for valid slug format.
var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// IsValid checks if the slug is valid.
func (s Slug) IsValid() bool {
	return slugRegex.MatchString(string(s))
}

// String returns the string representation.
func (s Slug) String() string {
	return string(s)
}

// NewSlug creates a validated slug from a raw string.
func NewSlug(raw string) (Slug, error) {
	s := Slug(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", WrapError("shared", "NewSlug", ErrInvalidFormat, fmt.Sprintf("invalid slug %q", raw), nil)
	}
	return s, nil
}

// Percent represents a percentage value in [0, 100].
type Percent float64

// IsValid checks if the percentage is within range.
func (p Percent) IsValid() bool {
	return p >= 0 && p <= 100
}

// Clamp returns the percentage clamped into [0, 100].
func (p Percent) Clamp() Percent {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
