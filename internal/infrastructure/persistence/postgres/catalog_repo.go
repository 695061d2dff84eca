// Package postgres implements the PostgreSQL persistence layer for Lentera LMS.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/catalog"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CatalogRepository implements catalog.Repository for PostgreSQL.
type CatalogRepository struct {
	conn *Connection
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(conn *Connection) *CatalogRepository {
	return &CatalogRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Modules
// ─────────────────────────────────────────────────────────────────────────────

// ListModules returns all modules ordered ascending by sort order.
func (r *CatalogRepository) ListModules(ctx context.Context) ([]*catalog.Module, error) {
	query := `
		SELECT id, title, category, sort_order, slug
		FROM modules
		ORDER BY sort_order ASC, id ASC
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	defer rows.Close()

	var modules []*catalog.Module
	for rows.Next() {
		m, err := r.scanModule(rows)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}

	return modules, rows.Err()
}

// GetModule returns a module by ID.
func (r *CatalogRepository) GetModule(ctx context.Context, id shared.ModuleID) (*catalog.Module, error) {
	query := `
		SELECT id, title, category, sort_order, slug
		FROM modules
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id.String())
	m, err := r.scanModule(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrModuleNotFound
		}
		return nil, err
	}

	return m, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Topics
// ─────────────────────────────────────────────────────────────────────────────

// ListTopics returns all topics of a module ordered ascending by sort order.
func (r *CatalogRepository) ListTopics(ctx context.Context, moduleID shared.ModuleID) ([]*catalog.Topic, error) {
	query := `
		SELECT id, module_id, title, sort_order, slug
		FROM topics
		WHERE module_id = $1
		ORDER BY sort_order ASC, id ASC
	`

	rows, err := r.conn.Query(ctx, query, moduleID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	defer rows.Close()

	return r.collectTopics(rows)
}

// ListAllTopics returns every topic, ordered by module then sort order.
func (r *CatalogRepository) ListAllTopics(ctx context.Context) ([]*catalog.Topic, error) {
	query := `
		SELECT t.id, t.module_id, t.title, t.sort_order, t.slug
		FROM topics t
		JOIN modules m ON m.id = t.module_id
		ORDER BY m.sort_order ASC, t.sort_order ASC, t.id ASC
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list all topics: %w", err)
	}
	defer rows.Close()

	return r.collectTopics(rows)
}

// GetTopic returns a topic by ID.
func (r *CatalogRepository) GetTopic(ctx context.Context, id shared.TopicID) (*catalog.Topic, error) {
	query := `
		SELECT id, module_id, title, sort_order, slug
		FROM topics
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id.String())
	t, err := r.scanTopic(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrTopicNotFound
		}
		return nil, err
	}

	return t, nil
}

// CountTopics returns the total number of topics in the catalog.
func (r *CatalogRepository) CountTopics(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM topics`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count topics: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *CatalogRepository) scanModule(row pgx.Row) (*catalog.Module, error) {
	var (
		id       string
		title    string
		category string
		order    int
		slug     string
	)

	if err := row.Scan(&id, &title, &category, &order, &slug); err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan module: %w", err)
	}

	return &catalog.Module{
		ID:       shared.ModuleID(id),
		Title:    title,
		Category: catalog.Category(category),
		Order:    order,
		Slug:     shared.Slug(slug),
	}, nil
}

func (r *CatalogRepository) scanTopic(row pgx.Row) (*catalog.Topic, error) {
	var (
		id       string
		moduleID string
		title    string
		order    int
		slug     string
	)

	if err := row.Scan(&id, &moduleID, &title, &order, &slug); err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan topic: %w", err)
	}

	return &catalog.Topic{
		ID:       shared.TopicID(id),
		ModuleID: shared.ModuleID(moduleID),
		Title:    title,
		Order:    order,
		Slug:     shared.Slug(slug),
	}, nil
}

func (r *CatalogRepository) collectTopics(rows pgx.Rows) ([]*catalog.Topic, error) {
	var topics []*catalog.Topic
	for rows.Next() {
		t, err := r.scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}
