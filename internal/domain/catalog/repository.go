package catalog

import (
	"context"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
)

// Repository defines read access to the learning catalog.
// The derivation engine never mutates reference data.
type Repository interface {
	// ListModules returns all modules ordered ascending by Order.
	ListModules(ctx context.Context) ([]*Module, error)

	// GetModule returns a module by ID, or shared.ErrModuleNotFound.
	GetModule(ctx context.Context, id shared.ModuleID) (*Module, error)

	// ListTopics returns all topics of a module ordered ascending by Order.
	ListTopics(ctx context.Context, moduleID shared.ModuleID) ([]*Topic, error)

	// ListAllTopics returns every topic in the catalog, ordered by module then Order.
	ListAllTopics(ctx context.Context) ([]*Topic, error)

	// GetTopic returns a topic by ID, or shared.ErrTopicNotFound.
	GetTopic(ctx context.Context, id shared.TopicID) (*Topic, error)

	// CountTopics returns the total number of topics in the catalog.
	CountTopics(ctx context.Context) (int, error)
}
