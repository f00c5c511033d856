package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenSet_AddIsIdempotent(t *testing.T) {
	var s TokenSet

	assert.True(t, s.Add("tok-a"))
	assert.False(t, s.Add("tok-a"))
	assert.False(t, s.Add("  tok-a  "))

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, []string{"tok-a"}, s.Slice())
}

func TestTokenSet_IgnoresBlankTokens(t *testing.T) {
	s := NewTokenSet("", "   ", "tok-b")
	assert.Equal(t, []string{"tok-b"}, s.Slice())
}

func TestTokenSet_Remove(t *testing.T) {
	s := NewTokenSet("tok-a", "tok-b")

	assert.True(t, s.Remove("tok-a"))
	assert.False(t, s.Remove("tok-a"))
	assert.False(t, s.Contains("tok-a"))
	assert.True(t, s.Contains("tok-b"))
}

func TestNormalizeLegacyTokens(t *testing.T) {
	tests := []struct {
		name   string
		legacy string
		tokens []string
		want   []string
	}{
		{"legacy only", "old", nil, []string{"old"}},
		{"list only", "", []string{"b", "a"}, []string{"a", "b"}},
		{"legacy already in list", "a", []string{"a", "b"}, []string{"a", "b"}},
		{"duplicates in list", "", []string{"a", "a"}, []string{"a"}},
		{"nothing", "", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLegacyTokens(tt.legacy, tt.tokens).Slice())
		})
	}
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short"))
	assert.Equal(t, "abcdefghijklmnopqrst...", Preview("abcdefghijklmnopqrstuvwxyz"))
}
