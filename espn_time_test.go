package sports

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestESPNTime_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    time.Time
		expectError bool
	}{
		{
			name:     "RFC3339 format with Z timezone",
			input:    `"2023-09-10T15:30:00Z"`,
			expected: time.Date(2023, 9, 10, 15, 30, 0, 0, time.UTC),
		},
		{
			name:     "RFC3339 format with negative offset",
			input:    `"2023-09-10T15:30:00-04:00"`,
			expected: time.Date(2023, 9, 10, 15, 30, 0, 0, time.FixedZone("", -4*3600)),
		},
		{
			name:     "short format without seconds with Z",
			input:    `"2023-09-10T15:30Z"`,
			expected: time.Date(2023, 9, 10, 15, 30, 0, 0, time.UTC),
		},
		{
			name:     "short format without seconds with offset",
			input:    `"2023-09-10T15:30-04:00"`,
			expected: time.Date(2023, 9, 10, 15, 30, 0, 0, time.FixedZone("", -4*3600)),
		},
		{
			name:     "fractional seconds",
			input:    `"2023-09-10T15:30:00.000Z"`,
			expected: time.Date(2023, 9, 10, 15, 30, 0, 0, time.UTC),
		},
		{name: "empty string", input: `""`},
		{name: "null value", input: `null`},
		{name: "to be determined", input: `"TBD"`},
		{name: "invalid date format", input: `"invalid-date"`, expectError: true},
		{name: "partial date", input: `"2023-09-10"`, expectError: true},
		{name: "time only", input: `"15:30:00"`, expectError: true},
		{name: "number instead of string", input: `1694358600`, expectError: true},
		{name: "unterminated string", input: `"2023-09-10T15:30:00Z`, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var espnTime ESPNTime
			err := espnTime.UnmarshalJSON([]byte(tt.input))

			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			if tt.expected.IsZero() {
				assert.True(t, espnTime.IsZero())
				return
			}
			assert.True(t, tt.expected.Equal(espnTime.Time), "expected %v, got %v", tt.expected, espnTime.Time)
		})
	}
}

func TestESPNTime_UnmarshalJSON_InStruct(t *testing.T) {
	input := `{
		"id": "401520281",
		"date": "2023-09-10T15:30Z",
		"competitions": [{"id": "401520281", "date": null}]
	}`

	var event Event
	require.NoError(t, json.Unmarshal([]byte(input), &event))

	assert.Equal(t, "401520281", event.ID)
	assert.True(t, time.Date(2023, 9, 10, 15, 30, 0, 0, time.UTC).Equal(event.Date.Time))
	require.Len(t, event.Competitions, 1)
	assert.True(t, event.Competitions[0].Date.IsZero())
}

func BenchmarkESPNTime_UnmarshalJSON_ShortFormat(b *testing.B) {
	input := []byte(`"2023-09-10T15:30Z"`)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var espnTime ESPNTime
		espnTime.UnmarshalJSON(input)
	}
}
