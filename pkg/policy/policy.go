package policy

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aquasecurity/vulnpolicy/pkg/severity"
	"github.com/emirpasic/gods/sets/hashset"
)

const (
	keyLevel = "level"
	keySkip  = "skip"
)

// Vulnerability is a single advisory reported for the audited project.
//
// Only ID and Severity take part in policy evaluation. The remaining fields
// are carried along for reporting.
type Vulnerability struct {
	ID       string            `json:"id"`
	Severity severity.Severity `json:"severity"`
	Module   string            `json:"module,omitempty"`
	Title    string            `json:"title,omitempty"`
	URL      string            `json:"url,omitempty"`
}

// SkipSet holds identifiers of vulnerabilities excluded from evaluation.
// The zero value is an empty set.
type SkipSet struct {
	ids *hashset.Set
}

// NewSkipSet constructs a SkipSet with the specified identifiers.
func NewSkipSet(ids ...string) SkipSet {
	set := hashset.New()
	for _, id := range ids {
		set.Add(id)
	}
	return SkipSet{ids: set}
}

// Contains returns true if the identifier is skipped.
func (s SkipSet) Contains(id string) bool {
	if s.ids == nil {
		return false
	}
	return s.ids.Contains(id)
}

func (s SkipSet) Len() int {
	if s.ids == nil {
		return 0
	}
	return s.ids.Size()
}

// IDs returns skipped identifiers sorted alphabetically.
func (s SkipSet) IDs() []string {
	ids := make([]string, 0, s.Len())
	if s.ids == nil {
		return ids
	}
	for _, value := range s.ids.Values() {
		ids = append(ids, value.(string))
	}
	sort.Strings(ids)
	return ids
}

// Config is the immutable policy configuration of a single evaluation.
type Config struct {
	Level severity.Severity
	Skip  SkipSet
}

func wrongLevelError() error {
	quoted := make([]string, 0, len(severity.Names()))
	for _, name := range severity.Names() {
		quoted = append(quoted, "'"+name+"'")
	}
	return fmt.Errorf("%w: wrong level option, should be one of: %s",
		severity.ErrInvalidConfiguration, strings.Join(quoted, ", "))
}

// NewConfig constructs a new Config. The level is validated eagerly and an
// error is returned if it's blank or unrecognized.
func NewConfig(level string, skip []string) (Config, error) {
	threshold, err := severity.Parse(level)
	if err != nil {
		return Config{}, wrongLevelError()
	}
	return Config{
		Level: threshold,
		Skip:  NewSkipSet(skip...),
	}, nil
}

// NewConfigFromValues constructs a new Config based on raw values decoded
// from JSON or YAML. The skip value is optional and anything but a list is
// treated as no skipped vulnerabilities.
func NewConfigFromValues(values map[string]interface{}) (Config, error) {
	if values == nil {
		return Config{}, errors.New("values must not be nil")
	}
	level, err := requiredStringValue(values, keyLevel)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", wrongLevelError(), err)
	}
	return NewConfig(level, skipValues(values[keySkip]))
}

func requiredStringValue(values map[string]interface{}, key string) (string, error) {
	value, ok := values[key]
	if !ok {
		return "", fmt.Errorf("required key not found: %s", key)
	}
	if value == nil {
		return "", fmt.Errorf("required value is nil for key: %s", key)
	}
	valueString, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("expected string got %T for key: %s", value, key)
	}
	if valueString == "" {
		return "", fmt.Errorf("required value is blank for key: %s", key)
	}
	return valueString, nil
}

func skipValues(value interface{}) []string {
	switch list := value.(type) {
	case []string:
		return list
	case []interface{}:
		ids := make([]string, 0, len(list))
		for _, item := range list {
			if id, ok := identifier(item); ok {
				ids = append(ids, id)
			}
		}
		return ids
	default:
		return nil
	}
}

// identifier converts a skip list item into an advisory identifier. npm
// advisory identifiers are numbers, so numeric items are accepted too.
func identifier(item interface{}) (string, bool) {
	switch v := item.(type) {
	case string:
		return v, v != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	default:
		return "", false
	}
}
