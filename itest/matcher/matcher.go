package matcher

import (
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gstruct"

	"fmt"

	"github.com/aquasecurity/vulnpolicy/pkg/report"
	"github.com/aquasecurity/vulnpolicy/pkg/severity"
	"github.com/onsi/gomega/types"
)

// IsViolatedReportFor succeeds if a report.Report has a valid structure, is
// evaluated at the specified level and counts the specified vulnerabilities.
//
// Note: This matcher does not validate individual vulnerabilities.
func IsViolatedReportFor(level severity.Severity, summary ...report.SummaryEntry) types.GomegaMatcher {
	return &reportMatcher{
		level:    level,
		violated: true,
		summary:  summary,
	}
}

// IsPassedReportFor succeeds if a report.Report has a valid structure, is
// evaluated at the specified level and the policy is not violated.
func IsPassedReportFor(level severity.Severity) types.GomegaMatcher {
	return &reportMatcher{
		level:    level,
		violated: false,
	}
}

type reportMatcher struct {
	level                 severity.Severity
	violated              bool
	summary               []report.SummaryEntry
	failureMessage        string
	negatedFailureMessage string
}

func (m *reportMatcher) Match(actual interface{}) (bool, error) {
	_, ok := actual.(report.Report)
	if !ok {
		return false, fmt.Errorf("%T expects a %T", reportMatcher{}, report.Report{})
	}

	summary := Equal(m.summary)
	message := BeEmpty()
	if !m.violated {
		summary = BeEmpty()
	} else {
		message = HavePrefix(fmt.Sprintf("Found vulnerabilities above the value %q: ", m.level.String()))
	}

	matcher := MatchFields(IgnoreExtras, Fields{
		"APIVersion":  Equal(report.APIVersion),
		"ID":          Not(BeEmpty()),
		"GeneratedAt": Not(BeZero()),
		"Level":       Equal(m.level),
		"Violated":    Equal(m.violated),
		"Message":     message,
		"Summary":     summary,
	})

	success, err := matcher.Match(actual)
	if err != nil {
		return false, err
	}
	m.failureMessage = matcher.FailureMessage(actual)
	m.negatedFailureMessage = matcher.NegatedFailureMessage(actual)
	return success, nil
}

func (m *reportMatcher) FailureMessage(_ interface{}) string {
	return m.failureMessage
}

func (m *reportMatcher) NegatedFailureMessage(_ interface{}) string {
	return m.negatedFailureMessage
}
