package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/galleria/internal/auth"
	"github.com/HerbHall/galleria/internal/gallery"
	"github.com/HerbHall/galleria/internal/marketplace"
	"github.com/HerbHall/galleria/internal/query"
)

func TestExitError(t *testing.T) {
	inner := errors.New("boom")
	err := WrapExitError(ExitCommandError, "load configuration", inner)
	assert.Equal(t, "load configuration: boom", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", err)))

	assert.Equal(t, "plain", NewExitError(ExitFailure, "plain").Error())
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("other")))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		exit int
	}{
		{"not signed in", auth.ErrNotSignedIn, ErrCodeAuth, ExitAuth},
		{"sign in required", gallery.ErrSignInRequired, ErrCodeAuth, ExitAuth},
		{"rejected token", fmt.Errorf("like: %w", marketplace.ErrUnauthorized), ErrCodeAuth, ExitAuth},
		{"bad query", fmt.Errorf("%w: sort", query.ErrInvalidQuery), ErrCodeInput, ExitCommandError},
		{"weak password", auth.ErrWeakPassword, ErrCodeInput, ExitCommandError},
		{"missing artwork", marketplace.ErrNotFound, ErrCodeNotFound, ExitFailure},
		{"liked twice", gallery.ErrAlreadyLiked, ErrCodeConflict, ExitFailure},
		{"not owner", gallery.ErrNotOwner, ErrCodeForbidden, ExitFailure},
		{"api down", marketplace.ErrUnavailable, ErrCodeUnavailable, ExitFailure},
		{"usage", NewExitError(ExitCommandError, "bad flag"), ErrCodeUsage, ExitCommandError},
		{"unknown command", errors.New(`unknown command "paint" for "galleria"`), ErrCodeUsage, ExitCommandError},
		{"other", errors.New("disk full"), ErrCodeFailure, ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, exit := Classify(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.exit, exit)
		})
	}
}

func TestOutputFormatter_RenderJSON(t *testing.T) {
	var out bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out}

	called := false
	err := f.Render(map[string]int{"count": 2}, func(io.Writer) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called, "text renderer is not used in JSON mode")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"count": float64(2)}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_RenderText(t *testing.T) {
	var out bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &out}
	require.NoError(t, f.Success("Liked a1", map[string]string{"id": "a1"}))
	assert.Equal(t, "Liked a1\n", out.String())
}

func TestOutputFormatter_Error(t *testing.T) {
	t.Run("text goes to ErrWriter", func(t *testing.T) {
		var out, errOut bytes.Buffer
		f := &OutputFormatter{Format: "text", Writer: &out, ErrWriter: &errOut, Verbose: true}
		require.NoError(t, f.Error(ErrCodeConflict, "already liked", "a1"))
		assert.Empty(t, out.String())
		assert.Equal(t, "Error [E_CONFLICT]: already liked\nDetails: a1\n", errOut.String())
	})

	t.Run("json goes to Writer", func(t *testing.T) {
		var out, errOut bytes.Buffer
		f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &errOut}
		require.NoError(t, f.Error(ErrCodeAuth, "not signed in", nil))
		assert.Empty(t, errOut.String())

		var resp CLIResponse
		require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, ErrCodeAuth, resp.Error.Code)
		assert.Equal(t, "not signed in", resp.Error.Message)
	})
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &errOut}
	f.VerboseLog("hidden %d", 1)
	assert.Empty(t, errOut.String())

	f.Verbose = true
	f.VerboseLog("fetched %d artworks", 3)
	assert.Equal(t, "fetched 3 artworks\n", errOut.String())
	assert.Empty(t, out.String())
}
