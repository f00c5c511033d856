package entity

import (
	"sort"
	"strings"
)

// OwnerKind identifies who a device token belongs to.
type OwnerKind string

const (
	OwnerUser   OwnerKind = "user"
	OwnerDriver OwnerKind = "driver"
)

type TokenOwner struct {
	Kind OwnerKind
	ID   string
}

// TokenSet is a deduplicated set of device tokens. Blank tokens are never stored.
type TokenSet struct {
	m map[string]struct{}
}

func NewTokenSet(tokens ...string) TokenSet {
	s := TokenSet{m: make(map[string]struct{}, len(tokens))}
	for _, t := range tokens {
		s.Add(t)
	}
	return s
}

// NormalizeLegacyTokens merges the legacy single-token column with the token
// list, so the dual representation stops at the storage boundary.
func NormalizeLegacyTokens(legacy string, tokens []string) TokenSet {
	s := NewTokenSet(tokens...)
	s.Add(legacy)
	return s
}

// Add reports whether the token was not present before.
func (s *TokenSet) Add(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	if s.m == nil {
		s.m = make(map[string]struct{})
	}
	if _, ok := s.m[token]; ok {
		return false
	}
	s.m[token] = struct{}{}
	return true
}

func (s *TokenSet) Remove(token string) bool {
	if _, ok := s.m[token]; !ok {
		return false
	}
	delete(s.m, token)
	return true
}

func (s TokenSet) Contains(token string) bool {
	_, ok := s.m[token]
	return ok
}

func (s TokenSet) Len() int { return len(s.m) }

// Slice returns the tokens sorted, for stable storage and logs.
func (s TokenSet) Slice() []string {
	out := make([]string, 0, len(s.m))
	for t := range s.m {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Preview shortens a token for log output.
func Preview(token string) string {
	if len(token) <= 20 {
		return token
	}
	return token[:20] + "..."
}
