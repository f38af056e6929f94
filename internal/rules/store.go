// Package rules owns the persisted mapping from spending category to the
// substring patterns that reclassify a counterparty into it. The mapping is
// process-wide shared state: one Store is constructed per process, loaded from
// its JSON file once, and flushed back on every mutation.
package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Entry is one category with its ordered pattern list. Entry order matters:
// classification folds over entries in this order and a later entry can
// re-match a receiver already rewritten by an earlier one.
type Entry struct {
	Category string
	Patterns []string
}

// Store holds the rule mapping and its backing file. Safe for concurrent use;
// the mutex covers the whole read-modify-persist sequence of AddRule so
// concurrent mutations cannot lose updates.
type Store struct {
	path string
	log  zerolog.Logger

	mu      sync.Mutex
	entries []Entry
	index   map[string]int
}

// NewStore builds a store backed by the JSON file at path and loads it.
// A missing or unreadable file leaves the store empty and usable; rules are
// an enhancement, not a precondition.
func NewStore(path string, log zerolog.Logger) *Store {
	s := &Store{
		path:  path,
		log:   log,
		index: make(map[string]int),
	}
	s.mu.Lock()
	s.load()
	s.mu.Unlock()
	return s
}

// load replaces the in-memory mapping with the file contents. Any failure is
// logged and the prior in-memory state is kept. Caller must hold s.mu.
func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("Failed to read rules file")
		return
	}

	entries, err := decodeRules(data)
	if err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("Failed to decode rules file")
		return
	}

	s.entries = entries
	s.index = make(map[string]int, len(entries))
	for i, e := range entries {
		s.index[e.Category] = i
	}
}

// save writes the full mapping back to the file, overwriting it. The error is
// logged here and also returned so the AddRule path can surface it; plain
// save failures do not invalidate the in-memory state.
func (s *Store) save() error {
	data, err := encodeRules(s.entries)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to encode rules")
		return fmt.Errorf("save: encoding rules: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("Failed to write rules file")
		return fmt.Errorf("save: writing %s: %w", s.path, err)
	}
	return nil
}

// AddRule appends pattern to the category's list, creating the category if
// absent, and persists the mapping immediately. Unlike load/save in
// isolation, a persistence failure here is returned to the caller: the rule
// is still active in memory, but the caller must know it was not made durable.
func (s *Store) AddRule(category, pattern string) error {
	if pattern == "" {
		return fmt.Errorf("AddRule: pattern must be a non-empty string")
	}
	if category == "" {
		return fmt.Errorf("AddRule: category must be a non-empty string")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[category]; ok {
		s.entries[i].Patterns = append(s.entries[i].Patterns, pattern)
	} else {
		s.entries = append(s.entries, Entry{Category: category, Patterns: []string{pattern}})
		s.index[category] = len(s.entries) - 1
	}

	if err := s.save(); err != nil {
		return fmt.Errorf("AddRule: %w", err)
	}

	s.log.Info().Str("category", category).Str("pattern", pattern).Msg("Rule added")
	return nil
}

// Rules returns a copy of the mapping in entry order.
func (s *Store) Rules() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = Entry{
			Category: e.Category,
			Patterns: append([]string(nil), e.Patterns...),
		}
	}
	return out
}

// decodeRules parses the persisted JSON object, keeping entries in the order
// the keys appear in the file. A plain map would shuffle them and change
// classification results between runs.
func decodeRules(data []byte) ([]Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decodeRules: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("decodeRules: expected JSON object, got %v", tok)
	}

	var entries []Entry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decodeRules: reading key: %w", err)
		}
		category, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("decodeRules: non-string key %v", keyTok)
		}

		var patterns []string
		if err := dec.Decode(&patterns); err != nil {
			return nil, fmt.Errorf("decodeRules: patterns for %q: %w", category, err)
		}
		entries = append(entries, Entry{Category: category, Patterns: patterns})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decodeRules: %w", err)
	}

	return entries, nil
}

// encodeRules writes the mapping as a single JSON object with keys in entry
// order, the inverse of decodeRules.
func encodeRules(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Category)
		if err != nil {
			return nil, err
		}
		patterns := e.Patterns
		if patterns == nil {
			patterns = []string{}
		}
		val, err := json.Marshal(patterns)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
