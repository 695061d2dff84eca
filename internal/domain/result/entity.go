// Package result contains the append-only test-attempt event log entities.
// A TestResult is immutable once created: corrections are new events, and the
// derivation engine only ever reads this log.
package result

import (
	"errors"
	"time"

	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
)

// Domain errors for result package.
var (
	ErrInvalidResultID   = errors.New("result: invalid result ID")
	ErrInvalidUserID     = errors.New("result: invalid user ID")
	ErrInvalidTestType   = errors.New("result: unknown test type")
	ErrScoreOutOfRange   = errors.New("result: score must be between 0 and 100")
	ErrNegativeCounts    = errors.New("result: correct/total counts cannot be negative")
	ErrCorrectOverTotal  = errors.New("result: correct answers cannot exceed total questions")
	ErrNegativeDuration  = errors.New("result: time taken cannot be negative")
	ErrFutureTimestamp   = errors.New("result: timestamp cannot be in the future")
	ErrMissingReference  = errors.New("result: test type requires a module or topic reference")
	ErrPassingThresholds = errors.New("result: passing threshold must be between 1 and 100")
)

// TestType identifies the kind of attempt an event records.
// The wire values are the product's original Indonesian test-type names and
// must stay byte-compatible with the historical event log.
type TestType string

const (
	// TestTypePreTestGlobal is the global placement pre-test.
	TestTypePreTestGlobal TestType = "pre-test-global"

	// TestTypePostTestModule is a module-level post-test.
	TestTypePostTestModule TestType = "post-test-modul"

	// TestTypePostTestTopic is a topic-level post-test. Passing one marks
	// the topic completed in the user's progress projection.
	TestTypePostTestTopic TestType = "post-test-topik"

	// TestTypeStudySession records reading/study time, not a graded test.
	TestTypeStudySession TestType = "study-session"
)

// IsValid checks if the test type is one of the known values.
func (t TestType) IsValid() bool {
	switch t {
	case TestTypePreTestGlobal, TestTypePostTestModule, TestTypePostTestTopic, TestTypeStudySession:
		return true
	}
	return false
}

// IsPostTest reports whether this type is a graded post-test
// (the only types that feed difficulty analytics).
func (t TestType) IsPostTest() bool {
	return t == TestTypePostTestModule || t == TestTypePostTestTopic
}

// String returns the string representation of the test type.
func (t TestType) String() string {
	return string(t)
}

// PassingScore is the score threshold for passing a test and for the
// remedial-rate calculation. Product constant, do not change casually.
const PassingScore = 70

// TestResult is one immutable attempt event in the log.
type TestResult struct {
	ID               string
	UserID           shared.UserID
	TestType         TestType
	Score            int // 0..100
	Correct          int
	Total            int
	TimeTakenSeconds int
	ModuleID         shared.ModuleID // empty unless the attempt is scoped to a module
	TopicID          shared.TopicID  // empty unless the attempt is scoped to a topic
	Timestamp        time.Time
}

// NewTestResult creates a validated test result event.
func NewTestResult(
	id string,
	userID shared.UserID,
	testType TestType,
	score, correct, total, timeTakenSeconds int,
	moduleID shared.ModuleID,
	topicID shared.TopicID,
	timestamp time.Time,
) (*TestResult, error) {
	if id == "" {
		return nil, ErrInvalidResultID
	}
	if !userID.IsValid() {
		return nil, ErrInvalidUserID
	}
	if !testType.IsValid() {
		return nil, ErrInvalidTestType
	}
	if score < 0 || score > 100 {
		return nil, ErrScoreOutOfRange
	}
	if correct < 0 || total < 0 {
		return nil, ErrNegativeCounts
	}
	if correct > total {
		return nil, ErrCorrectOverTotal
	}
	if timeTakenSeconds < 0 {
		return nil, ErrNegativeDuration
	}
	if timestamp.After(time.Now().Add(time.Minute)) { // Allow 1 minute tolerance
		return nil, ErrFutureTimestamp
	}

	switch testType {
	case TestTypePostTestModule:
		if !moduleID.IsValid() {
			return nil, ErrMissingReference
		}
	case TestTypePostTestTopic:
		if !topicID.IsValid() {
			return nil, ErrMissingReference
		}
	}

	return &TestResult{
		ID:               id,
		UserID:           userID,
		TestType:         testType,
		Score:            score,
		Correct:          correct,
		Total:            total,
		TimeTakenSeconds: timeTakenSeconds,
		ModuleID:         moduleID,
		TopicID:          topicID,
		Timestamp:        timestamp,
	}, nil
}

// IsPassing reports whether the attempt's score meets the passing threshold.
func (r *TestResult) IsPassing() bool {
	return r.Score >= PassingScore
}
