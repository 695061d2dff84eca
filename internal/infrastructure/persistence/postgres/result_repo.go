// Package postgres implements the PostgreSQL persistence layer for Lentera LMS.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/result"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESULT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ResultRepository implements result.Repository for PostgreSQL.
// The test_results table is append-only: the repository never issues
// UPDATE or DELETE statements against it.
type ResultRepository struct {
	conn *Connection
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(conn *Connection) *ResultRepository {
	return &ResultRepository{conn: conn}
}

// Append writes one new attempt event to the log.
func (r *ResultRepository) Append(ctx context.Context, res *result.TestResult) error {
	query := `
		INSERT INTO test_results (
			id, user_id, test_type, score, correct, total,
			time_taken_seconds, module_id, topic_id, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.conn.Exec(ctx, query,
		res.ID,
		res.UserID.String(),
		res.TestType.String(),
		res.Score,
		res.Correct,
		res.Total,
		res.TimeTakenSeconds,
		nullableID(res.ModuleID.String()),
		nullableID(res.TopicID.String()),
		res.Timestamp,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		if IsForeignKeyViolation(err) {
			return shared.ErrNotFound
		}
		return fmt.Errorf("failed to append test result: %w", err)
	}

	return nil
}

// Query returns events matching the filter, ordered by timestamp descending.
func (r *ResultRepository) Query(ctx context.Context, f result.Filter) ([]*result.TestResult, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, user_id, test_type, score, correct, total,
		       time_taken_seconds, module_id, topic_id, occurred_at
		FROM test_results
		WHERE 1=1
	`)

	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.UserID != "" {
		sb.WriteString(" AND user_id = " + arg(f.UserID.String()))
	}
	if f.ModuleID != "" {
		sb.WriteString(" AND module_id = " + arg(f.ModuleID.String()))
	}
	if f.TopicID != "" {
		sb.WriteString(" AND topic_id = " + arg(f.TopicID.String()))
	}
	if len(f.TestTypes) > 0 {
		types := make([]string, 0, len(f.TestTypes))
		for _, t := range f.TestTypes {
			types = append(types, t.String())
		}
		sb.WriteString(" AND test_type = ANY(" + arg(types) + ")")
	}
	if !f.Since.IsZero() {
		sb.WriteString(" AND occurred_at >= " + arg(f.Since))
	}
	if !f.Until.IsZero() {
		sb.WriteString(" AND occurred_at <= " + arg(f.Until))
	}

	sb.WriteString(" ORDER BY occurred_at DESC, id DESC")

	if f.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(f.Limit))
	}

	rows, err := r.conn.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query test results: %w", err)
	}
	defer rows.Close()

	var results []*result.TestResult
	for rows.Next() {
		var (
			res      result.TestResult
			userID   string
			testType string
			moduleID *string
			topicID  *string
		)

		err := rows.Scan(
			&res.ID,
			&userID,
			&testType,
			&res.Score,
			&res.Correct,
			&res.Total,
			&res.TimeTakenSeconds,
			&moduleID,
			&topicID,
			&res.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan test result: %w", err)
		}

		res.UserID = shared.UserID(userID)
		res.TestType = result.TestType(testType)
		if moduleID != nil {
			res.ModuleID = shared.ModuleID(*moduleID)
		}
		if topicID != nil {
			res.TopicID = shared.TopicID(*topicID)
		}

		results = append(results, &res)
	}

	return results, rows.Err()
}

// SumStudyTimeSeconds returns the total duration of all study-session events.
func (r *ResultRepository) SumStudyTimeSeconds(ctx context.Context) (int64, error) {
	query := `
		SELECT COALESCE(SUM(time_taken_seconds), 0)
		FROM test_results
		WHERE test_type = $1
	`

	var total int64
	err := r.conn.QueryRow(ctx, query, result.TestTypeStudySession.String()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum study time: %w", err)
	}

	return total, nil
}

// nullableID converts an empty ID string to NULL for optional foreign keys.
func nullableID(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}
