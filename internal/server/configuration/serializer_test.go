package configuration

import (
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "{}"},
		{"whitespace", "  \n", "{}"},
		{"null", "null", "{}"},
		{"sorted keys", `{"b": 1, "a": {"z": true, "y": [1, "x"]}}`, `{"a":{"y":[1,"x"],"z":true},"b":1}`},
		{"empty object", `{ }`, `{}`},
	}
	var s Serializer
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Normalize([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	var s Serializer
	once, err := s.Normalize([]byte(`{"EnableMediaPlayback": true, "MaxParentalRating": 12, "BlockedChannels": ["a","b"]}`))
	require.NoError(t, err)
	twice, err := s.Normalize(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestNormalize_Rejects(t *testing.T) {
	var s Serializer
	for _, in := range []string{
		`[1,2]`,
		`"text"`,
		`42`,
		`{"a":1`,
		`{"a":1} trailing`,
		`{"a":1,"a":2}`,
		`{"big":"` + strings.Repeat("x", MaxSize) + `"}`,
	} {
		_, err := s.Normalize([]byte(in))
		assert.True(t, errors.Is(err, common.ErrorValidation), "input %.20q: %v", in, err)
	}
}

func TestNormalize_KeepsValuesExactly(t *testing.T) {
	var s Serializer
	in := `{"tag": "a<b&c>", "maxBitrate": 9007199254740993, "ratio": 1.50, "neg": -0.000001e-7, "nested": {"id": 12345678901234567890}}`

	got, err := s.Normalize([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, `{"maxBitrate":9007199254740993,"neg":-0.000001e-7,"nested":{"id":12345678901234567890},"ratio":1.50,"tag":"a<b&c>"}`, string(got))

	again, err := s.Normalize(got)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}
