// Package session is the per-device identity and anti-replay guard. It is
// the Go counterpart of the browser's localStorage: an advisory cache that
// keeps one device from answering the same question twice and lets it resume
// after a reload. It is not authoritative and not a security control.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Result is the cached outcome of a submitted answer. It is written once and
// never mutated until ClearAll.
type Result struct {
	Correct bool `json:"correct"`
	Score   int  `json:"score"` // player total at the time of answering
}

type state struct {
	PlayerId string            `json:"player_id,omitempty"`
	Nickname string            `json:"nickname,omitempty"`
	Answers  map[string]Result `json:"answers"` // keyed by question id
}

// Store persists device state to a JSON file, flushing after every change so
// a crash or reload cannot re-open an answered question.
type Store struct {
	mu   sync.Mutex
	path string
	st   state
}

// Open loads the device state from path, starting empty when the file does
// not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path, st: state{Answers: map[string]Result{}}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &s.st); err != nil {
		// A corrupt state file behaves like a fresh device.
		s.st = state{Answers: map[string]Result{}}
	}
	if s.st.Answers == nil {
		s.st.Answers = map[string]Result{}
	}

	return s, nil
}

// Identity returns the persisted player id and nickname, empty when the
// device has not joined.
func (s *Store) Identity() (playerId, nickname string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.PlayerId, s.st.Nickname
}

func (s *Store) SaveIdentity(playerId, nickname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.PlayerId = playerId
	s.st.Nickname = nickname
	return s.flush()
}

// CanAnswer reports whether this device may still answer the question. It is
// false permanently once RecordAnswer ran, until ClearAll.
func (s *Store) CanAnswer(questionId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, answered := s.st.Answers[questionId]
	return !answered
}

// RecordAnswer caches the result for a question. The first record wins;
// later calls for the same question are ignored.
func (s *Store) RecordAnswer(questionId string, r Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, answered := s.st.Answers[questionId]; answered {
		return nil
	}
	s.st.Answers[questionId] = r
	return s.flush()
}

// CachedResult returns the stored result for a question, if any.
func (s *Store) CachedResult(questionId string) (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.st.Answers[questionId]
	return r, ok
}

// ClearAll wipes every answer record. Invoked on logout, on a game reset
// notification, or on explicit re-join.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Answers = map[string]Result{}
	return s.flush()
}

// Logout clears the identity and every answer record. This is the forced
// logout path taken when the server-side player row has disappeared.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = state{Answers: map[string]Result{}}
	return s.flush()
}

func (s *Store) flush() error {
	data, err := json.Marshal(&s.st)
	if err != nil {
		return fmt.Errorf("session: marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("session: mkdir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("session: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("session: rename: %w", err)
	}
	return nil
}
