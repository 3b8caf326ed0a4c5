package timex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return parsed
}

func TestCivil_StripsOffset(t *testing.T) {
	east := mustParse(t, "2023-09-26T15:11:02+05:30")
	assert.Equal(t, "2023-09-26 09:41:02", CivilString(east))

	west := mustParse(t, "2023-09-26T15:11:02-07:00")
	assert.Equal(t, "2023-09-26 22:11:02", CivilString(west))
}

func TestCivil_SameInstantDifferentOffsets(t *testing.T) {
	a := mustParse(t, "2023-09-26T15:11:02+05:30")
	b := mustParse(t, "2023-09-26T09:41:02Z")

	assert.True(t, Civil(a).Equal(Civil(b)))
	assert.Equal(t, CivilString(a), CivilString(b))
}

func TestCivil_ResultIsUTC(t *testing.T) {
	in := mustParse(t, "2024-01-02T00:00:00-01:00")
	out := Civil(in)
	assert.Equal(t, time.UTC, out.Location())
	assert.Equal(t, "2024-01-02 01:00:00", CivilString(in))
}

func TestParseCivil_RoundTrip(t *testing.T) {
	in := mustParse(t, "2023-09-26T15:11:02.123456789+05:30")
	parsed, err := ParseCivil(CivilString(in))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(Civil(in)))
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"string form", `"30s"`, 30 * time.Second, false},
		{"integer nanoseconds", `5000000000`, 5 * time.Second, false},
		{"bad string", `"later"`, 0, true},
		{"bad type", `true`, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalJSON([]byte(tc.in))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, d.Duration)
		})
	}
}
