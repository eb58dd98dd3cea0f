package ext

import (
	"time"

	"github.com/google/uuid"
)

// Clock wraps the Now method so that reports can be stamped with a fixed
// time in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// NewSystemClock returns a Clock reading the current UTC time.
func NewSystemClock() Clock {
	return systemClock{}
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time {
	return time.Time(c)
}

// NewFixedClock returns a Clock which always returns t.
func NewFixedClock(t time.Time) Clock {
	return fixedClock(t)
}

// IDGenerator generates identifiers of reports.
type IDGenerator interface {
	GenerateID() string
}

// IDGeneratorFunc is an adapter to allow the use of ordinary functions as
// IDGenerator.
type IDGeneratorFunc func() string

func (f IDGeneratorFunc) GenerateID() string {
	return f()
}

// NewGoogleUUIDGenerator returns IDGenerator backed by random UUIDs.
func NewGoogleUUIDGenerator() IDGenerator {
	return IDGeneratorFunc(func() string {
		return uuid.New().String()
	})
}

// NewStaticIDGenerator returns IDGenerator which always returns id.
func NewStaticIDGenerator(id string) IDGenerator {
	return IDGeneratorFunc(func() string {
		return id
	})
}
