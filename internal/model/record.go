// Package model defines the vulnerability record domain model.
package model

import (
	"fmt"
	"regexp"
	"time"
)

// Severity classifies the impact of a vulnerability record.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Known reports whether s is one of the accepted severity values.
func (s Severity) Known() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Reference points at supporting material for a record.
type Reference struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Record is a validated vulnerability entry. Once a record has been
// committed into a block it is immutable.
type Record struct {
	ID          string      `json:"cve_id"`
	Description string      `json:"description"`
	Severity    Severity    `json:"severity"`
	CVSSScore   *float64    `json:"cvss_score,omitempty"`
	References  []Reference `json:"references,omitempty"`
	Source      string      `json:"source"`
	ReportedAt  time.Time   `json:"reported_at"`
}

var cveIDPattern = regexp.MustCompile(`^CVE-\d{4}-\d{4,}$`)

// ValidationError describes a record that failed structural validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record: %s %s", e.Field, e.Reason)
}

// Validate checks the structural constraints of a record. It has no side
// effects; callers admitting external input must call it before anything else.
func (r Record) Validate() error {
	if !cveIDPattern.MatchString(r.ID) {
		return &ValidationError{Field: "cve_id", Reason: fmt.Sprintf("%q does not match CVE-YYYY-NNNN", r.ID)}
	}
	if r.Description == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if !r.Severity.Known() {
		return &ValidationError{Field: "severity", Reason: fmt.Sprintf("unknown value %q", r.Severity)}
	}
	if r.CVSSScore != nil && (*r.CVSSScore < 0 || *r.CVSSScore > 10) {
		return &ValidationError{Field: "cvss_score", Reason: fmt.Sprintf("%v outside [0, 10]", *r.CVSSScore)}
	}
	return nil
}
