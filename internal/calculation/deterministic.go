package calculation

import "time"

// nowFunc returns the current time (override in tests for determinism).
// It closes open-ended overlay windows and backs Planner.Now.
var nowFunc = time.Now

// SetNowFunc overrides the time provider (use only in tests).
func SetNowFunc(f func() time.Time) { nowFunc = f }
