// This file adds a lightweight linter/validator for Config values. It performs
// static checks over a decoded Config and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// knownKinds lists the storage backends compiled into the binaries. Kept here
// as a static list so config validation stays decoupled from the store
// factory.
var knownKinds = []string{"mysql", "postgres", "mssql", "sqlite"}

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "storage.kind"); Message is
// human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static validation of a Config. It does not mutate the
// config; callers decide whether warnings are fatal.
func Validate(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{SeverityWarning, "job", "empty job name; metrics will use a generic group"})
	}

	kind := strings.TrimSpace(c.Storage.Kind)
	if kind == "" {
		issues = append(issues, Issue{SeverityError, "storage.kind", "storage kind is required"})
	} else if !contains(knownKinds, kind) {
		issues = append(issues, Issue{
			SeverityError, "storage.kind",
			fmt.Sprintf("unknown kind %q (expected one of %s)", kind, strings.Join(knownKinds, ", ")),
		})
	}
	if strings.TrimSpace(c.Storage.DSN) == "" {
		issues = append(issues, Issue{SeverityError, "storage.dsn", "DSN is required"})
	}

	if c.Connect.MaxAttempts < 0 {
		issues = append(issues, Issue{SeverityError, "connect.max_attempts", "must not be negative"})
	}
	if c.Connect.RetryDelaySeconds < 0 {
		issues = append(issues, Issue{SeverityError, "connect.retry_delay_seconds", "must not be negative"})
	}

	if c.Ingest.PlacesCSV == "" && c.Ingest.PeopleCSV != "" {
		issues = append(issues, Issue{
			SeverityError, "ingest.places_csv",
			"people cannot be loaded without places; place ids are resolved from the places load",
		})
	}

	if c.Output.SummaryJSON == "" {
		issues = append(issues, Issue{SeverityWarning, "output.summary_json", "no summary path; compute/dump will have nothing to write"})
	}

	return issues
}

// HasError reports whether any issue is of error severity.
func HasError(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
