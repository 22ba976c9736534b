package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "device.json")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func TestFreshDeviceCanAnswer(t *testing.T) {
	s, _ := tempStore(t)

	assert.True(t, s.CanAnswer("q1"))
	id, nick := s.Identity()
	assert.Empty(t, id)
	assert.Empty(t, nick)
}

func TestRecordAnswerBlocksResubmission(t *testing.T) {
	s, _ := tempStore(t)

	require.NoError(t, s.RecordAnswer("q1", Result{Correct: true, Score: 1150}))
	assert.False(t, s.CanAnswer("q1"))
	assert.True(t, s.CanAnswer("q2"), "other questions stay open")

	r, ok := s.CachedResult("q1")
	require.True(t, ok)
	assert.True(t, r.Correct)
	assert.Equal(t, 1150, r.Score)
}

func TestFirstRecordWins(t *testing.T) {
	s, _ := tempStore(t)

	require.NoError(t, s.RecordAnswer("q1", Result{Correct: true, Score: 1150}))
	require.NoError(t, s.RecordAnswer("q1", Result{Correct: false, Score: 0}))

	r, ok := s.CachedResult("q1")
	require.True(t, ok)
	assert.True(t, r.Correct, "a later record must not overwrite the first")
	assert.Equal(t, 1150, r.Score)
}

func TestAnswersSurviveReopen(t *testing.T) {
	s, path := tempStore(t)

	require.NoError(t, s.SaveIdentity("p1", "ada"))
	require.NoError(t, s.RecordAnswer("q1", Result{Correct: true, Score: 1000}))

	// simulate a page reload
	reopened, err := Open(path)
	require.NoError(t, err)

	id, nick := reopened.Identity()
	assert.Equal(t, "p1", id)
	assert.Equal(t, "ada", nick)
	assert.False(t, reopened.CanAnswer("q1"))

	r, ok := reopened.CachedResult("q1")
	require.True(t, ok)
	assert.Equal(t, 1000, r.Score)
}

func TestClearAllReopensQuestionsButKeepsIdentity(t *testing.T) {
	s, _ := tempStore(t)

	require.NoError(t, s.SaveIdentity("p1", "ada"))
	require.NoError(t, s.RecordAnswer("q1", Result{Correct: true, Score: 1000}))

	require.NoError(t, s.ClearAll())

	assert.True(t, s.CanAnswer("q1"))
	_, ok := s.CachedResult("q1")
	assert.False(t, ok)

	id, _ := s.Identity()
	assert.Equal(t, "p1", id)
}

func TestLogoutWipesEverything(t *testing.T) {
	s, path := tempStore(t)

	require.NoError(t, s.SaveIdentity("p1", "ada"))
	require.NoError(t, s.RecordAnswer("q1", Result{Correct: true, Score: 1000}))

	require.NoError(t, s.Logout())

	id, nick := s.Identity()
	assert.Empty(t, id)
	assert.Empty(t, nick)
	assert.True(t, s.CanAnswer("q1"))

	// logout is persisted, not just in memory
	reopened, err := Open(path)
	require.NoError(t, err)
	id, _ = reopened.Identity()
	assert.Empty(t, id)
}

func TestCorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s, err := Open(path)
	require.NoError(t, err)
	assert.True(t, s.CanAnswer("q1"))
}
