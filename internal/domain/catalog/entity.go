// Package catalog contains the hierarchical reference data of the learning
// catalog: ordered Modules grouped by difficulty category, each containing
// ordered Topics. This is a pure domain layer with zero external dependencies.
package catalog

import (
	"errors"
	"sort"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
)

// Domain errors for catalog package.
var (
	ErrInvalidModuleID = errors.New("catalog: invalid module ID")
	ErrInvalidTopicID  = errors.New("catalog: invalid topic ID")
	ErrEmptyTitle      = errors.New("catalog: title cannot be empty")
	ErrInvalidCategory = errors.New("catalog: unknown category")
	ErrNegativeOrder   = errors.New("catalog: order cannot be negative")
)

// Category represents the difficulty category of a module.
// Categories gate module access by the user's learning level.
type Category string

const (
	CategoryEasy   Category = "easy"
	CategoryMedium Category = "medium"
	CategoryHard   Category = "hard"
)

// IsValid checks if the category is one of the known values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryEasy, CategoryMedium, CategoryHard:
		return true
	}
	return false
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// Module represents one unit of the learning catalog. Modules are ordered
// for navigation; the category decides which learning levels may enter.
type Module struct {
	ID       shared.ModuleID
	Title    string
	Category Category
	Order    int
	Slug     shared.Slug
}

// NewModule creates a module with validation.
func NewModule(id shared.ModuleID, title string, category Category, order int, slug shared.Slug) (*Module, error) {
	if !id.IsValid() {
		return nil, ErrInvalidModuleID
	}
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if !category.IsValid() {
		return nil, ErrInvalidCategory
	}
	if order < 0 {
		return nil, ErrNegativeOrder
	}
	return &Module{
		ID:       id,
		Title:    title,
		Category: category,
		Order:    order,
		Slug:     slug,
	}, nil
}

// Topic represents one lesson inside a module. Order defines the sequential
// unlock position within the module.
type Topic struct {
	ID       shared.TopicID
	ModuleID shared.ModuleID
	Title    string
	Order    int
	Slug     shared.Slug
}

// NewTopic creates a topic with validation.
func NewTopic(id shared.TopicID, moduleID shared.ModuleID, title string, order int, slug shared.Slug) (*Topic, error) {
	if !id.IsValid() {
		return nil, ErrInvalidTopicID
	}
	if !moduleID.IsValid() {
		return nil, ErrInvalidModuleID
	}
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if order < 0 {
		return nil, ErrNegativeOrder
	}
	return &Topic{
		ID:       id,
		ModuleID: moduleID,
		Title:    title,
		Order:    order,
		Slug:     slug,
	}, nil
}

// SortModules sorts modules ascending by Order. Ties keep the input order;
// order values are unique within the catalog so ties only appear in bad data.
func SortModules(modules []*Module) {
	sort.SliceStable(modules, func(i, j int) bool {
		return modules[i].Order < modules[j].Order
	})
}

// SortTopics sorts topics ascending by Order within their module.
func SortTopics(topics []*Topic) {
	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Order < topics[j].Order
	})
}

// GroupTopicsByModule buckets topics by their module ID, each bucket sorted by Order.
func GroupTopicsByModule(topics []*Topic) map[shared.ModuleID][]*Topic {
	grouped := make(map[shared.ModuleID][]*Topic)
	for _, t := range topics {
		grouped[t.ModuleID] = append(grouped[t.ModuleID], t)
	}
	for _, bucket := range grouped {
		SortTopics(bucket)
	}
	return grouped
}
