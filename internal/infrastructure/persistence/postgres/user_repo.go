// Package postgres implements the PostgreSQL persistence layer for Lentera LMS.
package postgres

import (
	"context"
	"fmt"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/progress"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements progress.Repository for PostgreSQL.
// It covers both the user directory and the topic completion set.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// GetUser returns a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id shared.UserID) (*progress.User, error) {
	query := `
		SELECT id, name, email, role, learning_level, created_at
		FROM users
		WHERE id = $1
	`

	var (
		u     progress.User
		uid   string
		role  string
		level string
	)

	row := r.conn.QueryRow(ctx, query, id.String())
	err := row.Scan(&uid, &u.Name, &u.Email, &role, &level, &u.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.ID = shared.UserID(uid)
	u.Role = progress.Role(role)
	u.LearningLevel = progress.LearningLevel(level)

	return &u, nil
}

// GetProgress returns the user's progress projection: their learning level
// plus the set of completed topics.
func (r *UserRepository) GetProgress(ctx context.Context, id shared.UserID) (*progress.UserProgress, error) {
	var level string
	err := r.conn.QueryRow(ctx,
		`SELECT learning_level FROM users WHERE id = $1`, id.String(),
	).Scan(&level)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user level: %w", err)
	}

	rows, err := r.conn.Query(ctx,
		`SELECT topic_id FROM topic_completions WHERE user_id = $1`, id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get topic completions: %w", err)
	}
	defer rows.Close()

	completions := make(progress.CompletionSet)
	for rows.Next() {
		var topicID string
		if err := rows.Scan(&topicID); err != nil {
			return nil, fmt.Errorf("failed to scan topic completion: %w", err)
		}
		completions[shared.TopicID(topicID)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &progress.UserProgress{
		UserID:           id,
		LearningLevel:    progress.LearningLevel(level),
		TopicCompletions: completions,
	}, nil
}

// MarkTopicCompleted inserts a topic into the user's completion set.
// ON CONFLICT DO NOTHING gives the insert set semantics: re-passing the
// same post-test is a no-op, including under concurrent requests.
func (r *UserRepository) MarkTopicCompleted(ctx context.Context, userID shared.UserID, topicID shared.TopicID) error {
	query := `
		INSERT INTO topic_completions (user_id, topic_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, topic_id) DO NOTHING
	`

	_, err := r.conn.Exec(ctx, query, userID.String(), topicID.String())
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.ErrNotFound
		}
		return fmt.Errorf("failed to mark topic completed: %w", err)
	}

	return nil
}

// CountCompletionsByUser returns completed-topic counts keyed by user.
// Users with zero completions are absent from the map.
func (r *UserRepository) CountCompletionsByUser(ctx context.Context) (map[shared.UserID]int, error) {
	query := `
		SELECT user_id, COUNT(*)
		FROM topic_completions
		GROUP BY user_id
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count completions: %w", err)
	}
	defer rows.Close()

	counts := make(map[shared.UserID]int)
	for rows.Next() {
		var (
			userID string
			count  int
		)
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan completion count: %w", err)
		}
		counts[shared.UserID(userID)] = count
	}

	return counts, rows.Err()
}

// CountUsers returns the number of registered users.
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
