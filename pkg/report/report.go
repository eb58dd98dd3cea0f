package report

import (
	"fmt"
	"time"

	"github.com/aquasecurity/vulnpolicy/pkg/ext"
	"github.com/aquasecurity/vulnpolicy/pkg/policy"
	"github.com/aquasecurity/vulnpolicy/pkg/severity"
)

const APIVersion = "vulnpolicy.aquasecurity.github.io/v1alpha1"

// ExitCodeViolation is the exit code of the process when the policy is
// violated.
const ExitCodeViolation = 2

// Report is the document describing the outcome of a policy evaluation.
type Report struct {
	APIVersion      string                 `json:"apiVersion" yaml:"apiVersion"`
	ID              string                 `json:"id" yaml:"id"`
	GeneratedAt     time.Time              `json:"generatedAt" yaml:"generatedAt"`
	Level           severity.Severity      `json:"level" yaml:"level"`
	Skip            []string               `json:"skip" yaml:"skip"`
	Violated        bool                   `json:"violated" yaml:"violated"`
	Message         string                 `json:"message,omitempty" yaml:"message,omitempty"`
	Summary         []SummaryEntry         `json:"summary" yaml:"summary"`
	Vulnerabilities []policy.Vulnerability `json:"vulnerabilities" yaml:"vulnerabilities"`
}

// SummaryEntry is the number of vulnerabilities of a single severity.
type SummaryEntry struct {
	Severity severity.Severity `json:"severity" yaml:"severity"`
	Count    int               `json:"count" yaml:"count"`
}

// NewReport constructs a new Report of the evaluation. The summary lists
// severities in ascending order, vulnerabilities are sorted by severity in
// descending order and then by ID.
func NewReport(assessment policy.Assessment, config policy.Config, clock ext.Clock, ids ext.IDGenerator) Report {
	summary := make([]SummaryEntry, 0, assessment.Counter.Len())
	for _, s := range assessment.Counter.Levels() {
		summary = append(summary, SummaryEntry{Severity: s, Count: assessment.Counter.Count(s)})
	}

	vulnerabilities := make([]policy.Vulnerability, 0, len(assessment.Evaluated))
	for _, v := range assessment.Evaluated {
		if severity.IsAtLeast(v.Severity, config.Level) {
			vulnerabilities = append(vulnerabilities, v)
		}
	}
	OrderedBy(SeverityThenID...).SortDesc(vulnerabilities)

	return Report{
		APIVersion:      APIVersion,
		ID:              ids.GenerateID(),
		GeneratedAt:     clock.Now(),
		Level:           config.Level,
		Skip:            config.Skip.IDs(),
		Violated:        assessment.Decision.Violated,
		Message:         assessment.Decision.Message,
		Summary:         summary,
		Vulnerabilities: vulnerabilities,
	}
}

// ViolationError is returned when the policy is violated. Its message is the
// message of the policy decision.
type ViolationError struct {
	Message string
}

func (e *ViolationError) Error() string {
	return e.Message
}

// ExitCode returns the exit code the process should terminate with.
func (e *ViolationError) ExitCode() int {
	return ExitCodeViolation
}

// Err returns ViolationError if the report is violated, nil otherwise.
func (r Report) Err() error {
	if !r.Violated {
		return nil
	}
	return &ViolationError{Message: r.Message}
}

func (r Report) String() string {
	if r.Violated {
		return r.Message
	}
	return fmt.Sprintf("No vulnerabilities above the value %q", r.Level.String())
}
