package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages runtime feature toggles.
// Flags default to their hardcoded values and can be overridden through
// environment variables of the form FEATURE_<NAME>=true|false, where <NAME>
// is the flag name uppercased with dots replaced by underscores.
//
// Example: FEATURE_ANALYTICS_DASHBOARD_CACHE=false
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool
}

// Predefined feature flag names.
const (
	// === Analytics Features ===
	FeatureAnalyticsDashboardCache = "analytics.dashboard_cache" // Cache admin dashboard in Redis
	FeatureAnalyticsWarmJob        = "analytics.warm_job"        // Periodic dashboard recompute
	FeatureAnalyticsHardestTopic   = "analytics.hardest_topic"   // Weighted difficulty ranking

	// === Progress Features ===
	FeatureProgressAutoCompletion = "progress.auto_completion" // Mark topic done on passing post-test

	// === HTTP Features ===
	FeatureHTTPAdminGuard = "http.admin_guard" // API key guard on admin endpoints
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features: make(map[string]*Feature),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	defaults := []*Feature{
		{
			Name:        FeatureAnalyticsDashboardCache,
			Description: "Cache the admin dashboard payload in Redis",
			Enabled:     true,
		},
		{
			Name:        FeatureAnalyticsWarmJob,
			Description: "Periodically recompute the admin dashboard in the background",
			Enabled:     true,
		},
		{
			Name:        FeatureAnalyticsHardestTopic,
			Description: "Rank topics by weighted difficulty score",
			Enabled:     true,
		},
		{
			Name:        FeatureProgressAutoCompletion,
			Description: "Mark a topic completed when its post-test is passed",
			Enabled:     true,
		},
		{
			Name:        FeatureHTTPAdminGuard,
			Description: "Require an API key on admin analytics endpoints",
			Enabled:     true,
		},
	}

	for _, f := range defaults {
		ff.features[f.Name] = f
	}
}

// loadFromEnvironment applies FEATURE_* overrides.
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := "FEATURE_" + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))
		val := os.Getenv(envKey)
		if val == "" {
			continue
		}
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			continue
		}
		feature.Enabled = enabled
	}
}

// IsEnabled reports whether the named feature is enabled.
// Unknown features are disabled.
func (ff *FeatureFlags) IsEnabled(name string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[name]
	if !ok {
		return false
	}
	return feature.Enabled
}

// Set enables or disables a feature at runtime (used in tests and admin tooling).
func (ff *FeatureFlags) Set(name string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if feature, ok := ff.features[name]; ok {
		feature.Enabled = enabled
		return
	}
	ff.features[name] = &Feature{Name: name, Enabled: enabled}
}

// All returns a snapshot of all features, for diagnostics endpoints.
func (ff *FeatureFlags) All() []Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	out := make([]Feature, 0, len(ff.features))
	for _, f := range ff.features {
		out = append(out, *f)
	}
	return out
}
