package severity_test

import (
	"encoding/json"
	"testing"

	"github.com/aquasecurity/vulnpolicy/pkg/severity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexOf(t *testing.T) {
	testCases := []struct {
		name          string
		expectedIndex int
		expectedError string
	}{
		{name: "info", expectedIndex: 0},
		{name: "low", expectedIndex: 1},
		{name: "moderate", expectedIndex: 2},
		{name: "high", expectedIndex: 3},
		{name: "critical", expectedIndex: 4},
		{name: "severe", expectedError: `invalid configuration: unrecognized severity level: "severe"`},
		{name: "HIGH", expectedError: `invalid configuration: unrecognized severity level: "HIGH"`},
		{name: "", expectedError: `invalid configuration: unrecognized severity level: ""`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			index, err := severity.IndexOf(tc.name)
			if tc.expectedError != "" {
				require.EqualError(t, err, tc.expectedError)
				assert.ErrorIs(t, err, severity.ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedIndex, index)
		})
	}
}

func TestIsAtLeast(t *testing.T) {
	levels := severity.Levels()
	for i, level := range levels {
		for j, threshold := range levels {
			t.Run(level.String()+">="+threshold.String(), func(t *testing.T) {
				assert.Equal(t, i >= j, severity.IsAtLeast(level, threshold))
			})
		}
	}
}

func TestParse(t *testing.T) {
	for _, name := range severity.Names() {
		s, err := severity.Parse(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.String())
	}
}

func TestSeverity_IsValid(t *testing.T) {
	assert.True(t, severity.Critical.IsValid())
	assert.True(t, severity.Info.IsValid())
	assert.False(t, severity.Severity(-1).IsValid())
	assert.False(t, severity.Severity(5).IsValid())
	assert.Equal(t, "Severity(7)", severity.Severity(7).String())
}

func TestSeverity_JSON(t *testing.T) {
	data, err := json.Marshal(map[string]severity.Severity{"level": severity.Moderate})
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"moderate"}`, string(data))

	var decoded struct {
		Level severity.Severity `json:"level"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"level":"critical"}`), &decoded))
	assert.Equal(t, severity.Critical, decoded.Level)

	err = json.Unmarshal([]byte(`{"level":"danger"}`), &decoded)
	assert.ErrorIs(t, err, severity.ErrInvalidConfiguration)

	_, err = json.Marshal(severity.Severity(9))
	assert.Error(t, err)
}
