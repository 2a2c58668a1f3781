// ABOUTME: Tests for capability mode parsing and the experimental gate.
// ABOUTME: Covers name, list, and integer forms plus invalid tokens.

package config

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		spec    string
		want    Mode
		wantErr bool
	}{
		{"FOR_SELF", ForSelf, false},
		{"for_self", ForSelf, false},
		{"FOR_SELF,FOR_DATA_PATTERNS", ForSelf | ForDataPatterns, false},
		{" FOR_SELF , FOR_PROMETHEUS ", ForSelf | ForPrometheus, false},
		{"EXPERIMENTAL", Experimental, false},
		{"1", ForSelf, false},
		{"5", ForSelf | ForDataPatterns, false},
		{"15", ForSelf | ForPrometheus | ForDataPatterns | Experimental, false},
		{"0", 0, true},
		{"16", 0, true},
		{"FOR_NOBODY", 0, true},
		{"FOR_SELF,FOR_NOBODY", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.spec)
		if tt.wantErr {
			assert.Error(t, err, "ParseMode(%q)", tt.spec)
			continue
		}
		require.NoError(t, err, "ParseMode(%q)", tt.spec)
		assert.Equal(t, tt.want, got, "ParseMode(%q)", tt.spec)
	}
}

func TestParseMode_InvalidTokenNamed(t *testing.T) {
	_, err := ParseMode("FOR_SELF,BOGUS")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "BOGUS")
}

func TestModeString_RoundTrip(t *testing.T) {
	for m := Mode(1); m <= allModes; m++ {
		if m&^allModes != 0 {
			continue
		}
		parsed, err := ParseMode(m.String())
		require.NoError(t, err, "ParseMode(%q)", m.String())
		assert.Equal(t, m, parsed, "round trip via %q", m.String())
	}
}

func TestActiveMode_ExperimentalGate(t *testing.T) {
	// Both keys must be turned: the mode flag and enable_experimental.
	for _, declared := range []Mode{ForSelf, ForSelf | Experimental, Experimental} {
		for _, enabled := range []bool{false, true} {
			s := &Settings{
				Dremio: &Dremio{URI: "https://x.example.com", EnableExperimental: enabled},
				Tools:  Tools{ServerMode: strconv.Itoa(int(declared))},
			}
			require.NoError(t, s.validate(), "validate(%v)", declared)
			assert.Equal(t, declared, s.DeclaredMode())

			wantActive := declared
			if !enabled {
				wantActive &^= Experimental
			}
			assert.Equal(t, wantActive, s.ActiveMode(),
				"declared=%v enabled=%v", declared, enabled)
		}
	}
}
