package model

import "time"

// ArchiveRow is the flattened form of a committed record mirrored into
// ClickHouse for analytics. The ledger remains the source of truth; rows
// here are derived and disposable.
type ArchiveRow struct {
	CVEID       string
	Severity    string
	CVSSScore   *float64
	Source      string
	Description string
	BlockIndex  uint64
	BlockHash   string
	BlockTime   time.Time
	ReportedAt  time.Time
}

// SeverityCount aggregates archived records per severity.
type SeverityCount struct {
	Severity string
	Count    uint64
}
