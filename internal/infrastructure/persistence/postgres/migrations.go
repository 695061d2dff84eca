// Package postgres implements the PostgreSQL persistence layer for Lentera LMS.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE USERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create users table
-- Version: 001

CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(100) NOT NULL,
    email VARCHAR(255) NOT NULL UNIQUE,
    role VARCHAR(20) NOT NULL DEFAULT 'student',
    learning_level VARCHAR(20) NOT NULL DEFAULT 'Basic',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_role CHECK (role IN ('student', 'admin')),
    CONSTRAINT valid_learning_level CHECK (learning_level IN ('Basic', 'Intermediate', 'Advanced'))
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
`

const migration001Down = `
DROP TABLE IF EXISTS users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE CATALOG
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create catalog tables (modules, topics)
-- Version: 002

CREATE TABLE IF NOT EXISTS modules (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    title VARCHAR(200) NOT NULL,
    category VARCHAR(20) NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0,
    slug VARCHAR(100) NOT NULL UNIQUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_category CHECK (category IN ('easy', 'medium', 'hard')),
    CONSTRAINT valid_sort_order CHECK (sort_order >= 0)
);

-- Navigation order is unique across modules: the sequential gate relies on it.
CREATE UNIQUE INDEX IF NOT EXISTS idx_modules_sort_order ON modules(sort_order);
CREATE INDEX IF NOT EXISTS idx_modules_category ON modules(category);

CREATE TABLE IF NOT EXISTS topics (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    module_id UUID NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
    title VARCHAR(200) NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0,
    slug VARCHAR(100) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_topic_sort_order CHECK (sort_order >= 0),
    UNIQUE(module_id, slug)
);

CREATE INDEX IF NOT EXISTS idx_topics_module_id ON topics(module_id);
-- Within a module the topic order is unique for the same reason.
CREATE UNIQUE INDEX IF NOT EXISTS idx_topics_module_order ON topics(module_id, sort_order);
`

const migration002Down = `
DROP TABLE IF EXISTS topics;
DROP TABLE IF EXISTS modules;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE RESULT LOG AND COMPLETIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create test result log and topic completions
-- Version: 003

-- Append-only log of test and study-session events.
-- Rows are never updated or deleted by the application.
CREATE TABLE IF NOT EXISTS test_results (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    test_type VARCHAR(30) NOT NULL,
    score INTEGER NOT NULL DEFAULT 0,
    correct INTEGER NOT NULL DEFAULT 0,
    total INTEGER NOT NULL DEFAULT 0,
    time_taken_seconds INTEGER NOT NULL DEFAULT 0,
    module_id UUID REFERENCES modules(id) ON DELETE SET NULL,
    topic_id UUID REFERENCES topics(id) ON DELETE SET NULL,
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_test_type CHECK (test_type IN (
        'pre-test-global', 'post-test-modul', 'post-test-topik', 'study-session'
    )),
    CONSTRAINT valid_score CHECK (score >= 0 AND score <= 100),
    CONSTRAINT valid_time_taken CHECK (time_taken_seconds >= 0)
);

CREATE INDEX IF NOT EXISTS idx_test_results_user_id ON test_results(user_id);
CREATE INDEX IF NOT EXISTS idx_test_results_occurred_at ON test_results(occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_test_results_user_type ON test_results(user_id, test_type);
CREATE INDEX IF NOT EXISTS idx_test_results_topic_id ON test_results(topic_id) WHERE topic_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_test_results_module_id ON test_results(module_id) WHERE module_id IS NOT NULL;

-- Set-semantics completion store. The composite primary key makes the
-- insert idempotent under concurrency (ON CONFLICT DO NOTHING).
CREATE TABLE IF NOT EXISTS topic_completions (
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    topic_id UUID NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
    completed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, topic_id)
);

CREATE INDEX IF NOT EXISTS idx_topic_completions_topic_id ON topic_completions(topic_id);
`

const migration003Down = `
DROP TABLE IF EXISTS topic_completions;
DROP TABLE IF EXISTS test_results;
`

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_users",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_catalog",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_result_log",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}
