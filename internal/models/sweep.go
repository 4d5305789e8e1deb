package models

import "time"

// SweepKind identifies a periodic maintenance sweep.
type SweepKind string

const (
	SweepNewPeriods     SweepKind = "new_periods"
	SweepPeriodStatuses SweepKind = "period_statuses"
)

// SweepResult summarises one sweep run.
type SweepResult struct {
	Kind       SweepKind `json:"kind"`
	Processed  int       `json:"processed"`
	Created    int       `json:"created"`
	Expired    int       `json:"expired"`
	Settled    int       `json:"settled"`
	Reopened   int       `json:"reopened"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
