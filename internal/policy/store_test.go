package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T, name string) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), name))
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	s := tempStore(t, "monitored_posts.json")

	policies, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, policies)
}

func TestStore_JSONRoundTripKeepsOrder(t *testing.T) {
	s := tempStore(t, "monitored_posts.json")

	in := []Policy{
		{PostID: "c-third-sorts-first", Enabled: true, CommentReplies: []string{"one"}},
		{PostID: "a-second", Enabled: false, DMMessage: "Hi {username}"},
		{PostID: "b-first", Enabled: true, CommentReplies: []string{"x", "y"}, DMMessage: "dm"},
	}
	require.NoError(t, s.Save(in))

	out, err := s.Load()
	require.NoError(t, err)
	require.Len(t, out, 3)

	// Order must survive the round trip; it is the substring tie-break.
	assert.Equal(t, "c-third-sorts-first", out[0].PostID)
	assert.Equal(t, "a-second", out[1].PostID)
	assert.Equal(t, "b-first", out[2].PostID)
	assert.Equal(t, in, out)
}

func TestStore_LegacySingleReplyField(t *testing.T) {
	s := tempStore(t, "monitored_posts.json")
	raw := `{
  "18076117025230421": {
    "comment_reply": "Obrigado pelo comentário!",
    "dm_message": "Oi! Aqui está o link.",
    "enabled": true
  }
}`
	require.NoError(t, os.WriteFile(s.Path(), []byte(raw), 0o644))

	out, err := s.Load()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []string{"Obrigado pelo comentário!"}, out[0].CommentReplies)
	assert.Equal(t, "Oi! Aqui está o link.", out[0].DMMessage)
	assert.True(t, out[0].Enabled)
}

func TestStore_YAMLRoundTripKeepsOrder(t *testing.T) {
	s := tempStore(t, "monitored_posts.yaml")

	in := []Policy{
		{PostID: "zzz", Enabled: true, CommentReplies: []string{"a"}},
		{PostID: "aaa", Enabled: true, CommentReplies: []string{"b"}},
	}
	require.NoError(t, s.Save(in))

	out, err := s.Load()
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "zzz", out[0].PostID)
	assert.Equal(t, "aaa", out[1].PostID)
}

func TestStore_SetAddsAndReplaces(t *testing.T) {
	s := tempStore(t, "monitored_posts.json")

	require.NoError(t, s.Set(Policy{PostID: "p1", Enabled: true, CommentReplies: []string{"hi"}}))
	require.NoError(t, s.Set(Policy{PostID: "p2", Enabled: true}))
	// Replace p1 in place; it must keep its position.
	require.NoError(t, s.Set(Policy{PostID: "p1", Enabled: false, DMMessage: "new"}))

	out, err := s.Load()
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "p1", out[0].PostID)
	assert.False(t, out[0].Enabled)
	assert.Equal(t, "new", out[0].DMMessage)
	assert.Empty(t, out[0].CommentReplies)
}

func TestStore_Remove(t *testing.T) {
	s := tempStore(t, "monitored_posts.json")
	require.NoError(t, s.Set(Policy{PostID: "p1", Enabled: true}))
	require.NoError(t, s.Set(Policy{PostID: "p2", Enabled: true}))

	require.NoError(t, s.Remove("p1"))
	out, err := s.Load()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "p2", out[0].PostID)

	assert.Error(t, s.Remove("nope"))
}

func TestStore_SetEnabled(t *testing.T) {
	s := tempStore(t, "monitored_posts.json")
	require.NoError(t, s.Set(Policy{PostID: "p1", Enabled: true}))

	require.NoError(t, s.SetEnabled("p1", false))
	out, err := s.Load()
	require.NoError(t, err)
	assert.False(t, out[0].Enabled)

	assert.Error(t, s.SetEnabled("nope", true))
}

func TestStore_RejectsNonObjectFile(t *testing.T) {
	s := tempStore(t, "monitored_posts.json")
	require.NoError(t, os.WriteFile(s.Path(), []byte(`["not","an","object"]`), 0o644))

	_, err := s.Load()
	assert.Error(t, err)
}
