package trip

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		dest      string
		days      int
		wantField string
		want      Request
	}{
		{name: "valid", dest: "Paris", days: 5, want: Request{Destination: "Paris", Days: 5}},
		{name: "trimmed", dest: "  Kyoto \n", days: 1, want: Request{Destination: "Kyoto", Days: 1}},
		{name: "upper bound", dest: "Lima", days: 30, want: Request{Destination: "Lima", Days: 30}},
		{name: "empty destination", dest: "   ", days: 7, wantField: "destination"},
		{name: "too long destination", dest: strings.Repeat("я", MaxDestinationLen+1), days: 7, wantField: "destination"},
		{name: "zero days", dest: "Paris", days: 0, wantField: "days"},
		{name: "too many days", dest: "Paris", days: 31, wantField: "days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.dest, tt.days)
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestNew_DestinationLimitCountsRunes(t *testing.T) {
	_, err := New(strings.Repeat("é", MaxDestinationLen), 3)
	assert.NoError(t, err)
}

func TestClampDays(t *testing.T) {
	assert.Equal(t, 1, ClampDays(-4))
	assert.Equal(t, 1, ClampDays(0))
	assert.Equal(t, 12, ClampDays(12))
	assert.Equal(t, 30, ClampDays(31))
	assert.Equal(t, 30, ClampDays(1000))
}

func TestParseDays(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "", want: DefaultDays},
		{raw: " 5 ", want: 5},
		{raw: "0", want: 1},
		{raw: "45", want: 30},
		{raw: "seven", wantErr: true},
		{raw: "2.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDays(tt.raw)
			if tt.wantErr {
				assert.True(t, IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanSubmit(t *testing.T) {
	assert.False(t, CanSubmit(""))
	assert.False(t, CanSubmit(" \t"))
	assert.True(t, CanSubmit("Rome"))
}

func TestRequestString(t *testing.T) {
	assert.Equal(t, "Paris (5 days)", Request{Destination: "Paris", Days: 5}.String())
}
