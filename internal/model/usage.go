package model

import (
	"time"
)

// UsageRecord is the persisted monthly counter of free-tier detections.
// PeriodAnchor is the timestamp of the last write, not the period start:
// increments refresh it, and the month rollover check compares its
// month/year against the wall clock.
type UsageRecord struct {
	Count        int       `json:"count"`
	PeriodAnchor time.Time `json:"periodAnchor"`
}
