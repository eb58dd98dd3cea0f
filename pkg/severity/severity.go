package severity

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned when a severity name is not one of the
// recognized levels.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Severity level of a vulnerability reported by npm audit.
// +enum
type Severity int

const (
	Info Severity = iota
	Low
	Moderate
	High
	Critical
)

var names = [...]string{
	Info:     "info",
	Low:      "low",
	Moderate: "moderate",
	High:     "high",
	Critical: "critical",
}

// Levels returns all severity levels ordered from the least to the most severe.
func Levels() []Severity {
	return []Severity{Info, Low, Moderate, High, Critical}
}

// Names returns names of all severity levels in ascending order.
func Names() []string {
	return names[:]
}

// IsValid returns true if s is one of the recognized levels.
func (s Severity) IsValid() bool {
	return s >= Info && s <= Critical
}

func (s Severity) String() string {
	if !s.IsValid() {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return names[s]
}

// IndexOf returns the rank of the named level, 0 for info up to 4 for critical.
func IndexOf(level string) (int, error) {
	for i, name := range names {
		if name == level {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: unrecognized severity level: %q", ErrInvalidConfiguration, level)
}

// Parse converts the name of a level into Severity.
func Parse(level string) (Severity, error) {
	i, err := IndexOf(level)
	if err != nil {
		return 0, err
	}
	return Severity(i), nil
}

// IsAtLeast returns true if level is as severe as threshold or more.
func IsAtLeast(level, threshold Severity) bool {
	return level >= threshold
}

func (s Severity) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: unrecognized severity: %d", ErrInvalidConfiguration, int(s))
	}
	return []byte(names[s]), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
