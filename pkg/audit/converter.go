package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/aquasecurity/vulnpolicy/pkg/policy"
	"github.com/aquasecurity/vulnpolicy/pkg/severity"
	"github.com/davecgh/go-spew/spew"
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/sets/hashset"
	"github.com/go-logr/logr"
)

// Converter is the interface that wraps the Convert method.
//
// Convert converts the report printed by npm audit to the list of
// vulnerabilities evaluated by the policy.
type Converter interface {
	Convert(reader io.Reader) ([]policy.Vulnerability, error)
}

type converter struct {
	logger logr.Logger
}

func NewConverter(logger logr.Logger) Converter {
	return &converter{
		logger: logger,
	}
}

func (c *converter) Convert(reader io.Reader) ([]policy.Vulnerability, error) {
	data, err := c.skippingNoisyOutput(reader)
	if err != nil {
		return nil, err
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decoding npm audit report: %w", err)
	}

	var vulnerabilities []policy.Vulnerability
	if report.AuditReportVersion >= 2 {
		vulnerabilities, err = c.fromPackages(report.Vulnerabilities)
	} else {
		vulnerabilities, err = c.fromAdvisories(report.Advisories)
	}
	if err != nil {
		return nil, err
	}

	if c.logger.V(4).Enabled() {
		c.logger.V(4).Info("Converted npm audit report",
			"version", report.AuditReportVersion,
			"vulnerabilities", spew.Sdump(vulnerabilities))
	}
	return vulnerabilities, nil
}

// npm prints warnings before the JSON document, e.g. when the lock file is
// outdated. Everything before the first opening brace is dropped.
func (c *converter) skippingNoisyOutput(reader io.Reader) ([]byte, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading npm audit report: %w", err)
	}
	index := bytes.IndexByte(data, '{')
	if index < 0 {
		return nil, ErrNoOutput
	}
	if index > 0 {
		c.logger.V(1).Info("Skipping noisy npm audit output", "bytes", index)
	}
	return data[index:], nil
}

func (c *converter) fromAdvisories(raw json.RawMessage) ([]policy.Vulnerability, error) {
	advisories, err := decodeOrdered(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding advisories: %w", err)
	}

	vulnerabilities := make([]policy.Vulnerability, 0, advisories.Size())
	it := advisories.Iterator()
	for it.Next() {
		key := it.Key().(string)
		var advisory Advisory
		if err := json.Unmarshal(it.Value().(json.RawMessage), &advisory); err != nil {
			return nil, fmt.Errorf("decoding advisory %s: %w", key, err)
		}
		s, err := severity.Parse(advisory.Severity)
		if err != nil {
			return nil, fmt.Errorf("parsing severity of advisory %s: %w", key, err)
		}
		vulnerabilities = append(vulnerabilities, policy.Vulnerability{
			ID:       key,
			Severity: s,
			Module:   advisory.ModuleName,
			Title:    advisory.Title,
			URL:      advisory.URL,
		})
	}
	return vulnerabilities, nil
}

func (c *converter) fromPackages(raw json.RawMessage) ([]policy.Vulnerability, error) {
	packages, err := decodeOrdered(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding vulnerabilities: %w", err)
	}

	seen := hashset.New()
	vulnerabilities := make([]policy.Vulnerability, 0)
	it := packages.Iterator()
	for it.Next() {
		key := it.Key().(string)
		var pkg Package
		if err := json.Unmarshal(it.Value().(json.RawMessage), &pkg); err != nil {
			return nil, fmt.Errorf("decoding package %s: %w", key, err)
		}
		for _, via := range pkg.Via {
			// Names of vulnerable dependencies are reported under their own key.
			if !isObject(via) {
				continue
			}
			var source Source
			if err := json.Unmarshal(via, &source); err != nil {
				return nil, fmt.Errorf("decoding advisory of package %s: %w", key, err)
			}
			id, ok := sourceID(source.Source)
			if !ok {
				return nil, fmt.Errorf("advisory of package %s has no source", key)
			}
			if seen.Contains(id) {
				continue
			}
			seen.Add(id)
			s, err := severity.Parse(source.Severity)
			if err != nil {
				return nil, fmt.Errorf("parsing severity of advisory %s: %w", id, err)
			}
			module := source.Name
			if module == "" {
				module = key
			}
			vulnerabilities = append(vulnerabilities, policy.Vulnerability{
				ID:       id,
				Severity: s,
				Module:   module,
				Title:    source.Title,
				URL:      source.URL,
			})
		}
	}
	return vulnerabilities, nil
}

// decodeOrdered decodes the JSON object into a map which keeps members in
// the order of the document. Values are left undecoded.
func decodeOrdered(raw json.RawMessage) (*linkedhashmap.Map, error) {
	m := linkedhashmap.New()
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return m, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object got %v", token)
	}
	for decoder.More() {
		token, err = decoder.Token()
		if err != nil {
			return nil, err
		}
		key, ok := token.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key got %v", token)
		}
		var value json.RawMessage
		if err := decoder.Decode(&value); err != nil {
			return nil, fmt.Errorf("decoding member %s: %w", key, err)
		}
		m.Put(key, value)
	}
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}
	return m, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func sourceID(value interface{}) (string, bool) {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case string:
		return v, v != ""
	default:
		return "", false
	}
}
