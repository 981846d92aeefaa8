package auth_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/galleria/internal/auth"
	"github.com/HerbHall/galleria/internal/testutil"
)

var issued = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestParseSession(t *testing.T) {
	tok := testutil.IDToken(t, "mira@example.com", "Mira Sol", "https://img.example.com/m.png", issued)

	s, err := auth.ParseSession(tok)
	require.NoError(t, err)
	assert.Equal(t, "mira@example.com", s.Email)
	assert.Equal(t, "Mira Sol", s.Name)
	assert.Equal(t, "https://img.example.com/m.png", s.PhotoURL)
	assert.NotEmpty(t, s.UserID)
	assert.Equal(t, tok, s.IDToken)
	assert.True(t, s.ExpiresAt.Equal(issued.Add(testutil.TokenTTL)))

	assert.False(t, s.Expired(issued.Add(59*time.Minute)))
	assert.True(t, s.Expired(issued.Add(testutil.TokenTTL)))
}

func TestParseSession_Invalid(t *testing.T) {
	_, err := auth.ParseSession("not-a-jwt")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	noEmail := testutil.IDToken(t, "", "Nobody", "", issued)
	_, err = auth.ParseSession(noEmail)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestSession_ZeroExpiryNeverExpires(t *testing.T) {
	s := &auth.Session{Email: "a@example.com"}
	assert.False(t, s.Expired(time.Now().Add(100*365*24*time.Hour)))
}

func TestFileSessionStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	store := auth.NewFileSessionStore(path)

	_, err := store.Load()
	require.ErrorIs(t, err, auth.ErrNotSignedIn)

	want := &auth.Session{
		UserID:       "u1",
		Email:        "mira@example.com",
		Name:         "Mira Sol",
		IDToken:      "tok",
		RefreshToken: "ref",
		ExpiresAt:    issued,
	}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want.Email, got.Email)
	assert.Equal(t, want.IDToken, got.IDToken)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.True(t, got.ExpiresAt.Equal(want.ExpiresAt))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear(), "clearing twice is fine")
	_, err = store.Load()
	assert.ErrorIs(t, err, auth.ErrNotSignedIn)
}

func TestFileSessionStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("email: [unterminated"), 0o600))

	_, err := auth.NewFileSessionStore(path).Load()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrNotSignedIn)
}

func TestMemorySessionStore_CopiesOnSave(t *testing.T) {
	var store auth.MemorySessionStore
	s := &auth.Session{Email: "a@example.com", IDToken: "t"}
	require.NoError(t, store.Save(s))
	s.Email = "changed@example.com"

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)
}
