package policy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aquasecurity/vulnpolicy/pkg/severity"
)

// ErrUnrecognizedSeverity is returned when a vulnerability carries a
// severity outside of the recognized levels.
var ErrUnrecognizedSeverity = errors.New("unrecognized severity")

// SeverityCounter holds the number of vulnerabilities per severity level.
// Levels without any vulnerability are absent.
type SeverityCounter struct {
	counts [severity.Critical + 1]int
}

func (c *SeverityCounter) increment(s severity.Severity) {
	c.counts[s]++
}

// Count returns the number of vulnerabilities of the specified level.
func (c SeverityCounter) Count(s severity.Severity) int {
	if !s.IsValid() {
		return 0
	}
	return c.counts[s]
}

// Levels returns levels with at least one vulnerability in ascending order.
func (c SeverityCounter) Levels() []severity.Severity {
	var levels []severity.Severity
	for _, s := range severity.Levels() {
		if c.counts[s] > 0 {
			levels = append(levels, s)
		}
	}
	return levels
}

// Len returns the number of levels present in the counter.
func (c SeverityCounter) Len() int {
	return len(c.Levels())
}

func (c SeverityCounter) IsEmpty() bool {
	return c.Len() == 0
}

// Total returns the number of counted vulnerabilities.
func (c SeverityCounter) Total() int {
	total := 0
	for _, count := range c.counts {
		total += count
	}
	return total
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Violated bool
	// Message is set only when Violated is true.
	Message string
}

// Assessment holds intermediate results of the evaluation pipeline.
type Assessment struct {
	// Evaluated are vulnerabilities left after skipped ones were removed.
	Evaluated []Vulnerability
	Counter   SeverityCounter
	Decision  Decision
}

// Filter returns vulnerabilities which are not skipped, in input order.
func Filter(vulnerabilities []Vulnerability, skip SkipSet) []Vulnerability {
	filtered := make([]Vulnerability, 0, len(vulnerabilities))
	for _, v := range vulnerabilities {
		if skip.Contains(v.ID) {
			continue
		}
		filtered = append(filtered, v)
	}
	return filtered
}

// Aggregate counts vulnerabilities as severe as threshold or more, grouped
// by severity.
func Aggregate(vulnerabilities []Vulnerability, threshold severity.Severity) (SeverityCounter, error) {
	var counter SeverityCounter
	if !threshold.IsValid() {
		return counter, fmt.Errorf("%w: threshold %s", ErrUnrecognizedSeverity, threshold)
	}
	for _, v := range vulnerabilities {
		if !v.Severity.IsValid() {
			return SeverityCounter{}, fmt.Errorf("%w: %s for vulnerability: %s", ErrUnrecognizedSeverity, v.Severity, v.ID)
		}
		if severity.IsAtLeast(v.Severity, threshold) {
			counter.increment(v.Severity)
		}
	}
	return counter, nil
}

// Decide turns counted vulnerabilities into a Decision. Policy is violated
// if at least one level has been counted.
func Decide(counter SeverityCounter, threshold severity.Severity) Decision {
	if counter.IsEmpty() {
		return Decision{}
	}
	entries := make([]string, 0, counter.Len())
	for _, s := range counter.Levels() {
		entries = append(entries, strconv.Itoa(counter.Count(s))+" "+s.String())
	}
	return Decision{
		Violated: true,
		Message:  fmt.Sprintf("Found vulnerabilities above the value %q: %s", threshold.String(), strings.Join(entries, ", ")),
	}
}

// Assess runs the evaluation pipeline and returns its intermediate results.
func Assess(vulnerabilities []Vulnerability, config Config) (Assessment, error) {
	evaluated := Filter(vulnerabilities, config.Skip)
	counter, err := Aggregate(evaluated, config.Level)
	if err != nil {
		return Assessment{}, err
	}
	return Assessment{
		Evaluated: evaluated,
		Counter:   counter,
		Decision:  Decide(counter, config.Level),
	}, nil
}

// Evaluate decides whether vulnerabilities violate the configured policy.
func Evaluate(vulnerabilities []Vulnerability, config Config) (Decision, error) {
	assessment, err := Assess(vulnerabilities, config)
	if err != nil {
		return Decision{}, err
	}
	return assessment.Decision, nil
}
