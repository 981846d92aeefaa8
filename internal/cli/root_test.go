package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "galleria", cmd.Use)
	assert.Contains(t, cmd.Long, "snapshot")

	exploreCmd, _, err := cmd.Find([]string{"explore"})
	require.NoError(t, err)
	assert.Contains(t, exploreCmd.Long, "title or artist name")
	assert.NotContains(t, exploreCmd.Long, "medium")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"explore"}, {"show"}, {"artist"}, {"like"},
		{"favorites", "list"}, {"favorites", "add"}, {"favorites", "remove"},
		{"mine"}, {"add"}, {"edit"}, {"delete"}, {"stats"},
		{"register"}, {"login"}, {"logout"}, {"whoami"},
		{"serve"}, {"backup"}, {"restore"},
		{"cache", "list"}, {"cache", "clear"},
		{"version"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestListCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{{"explore"}, {"mine"}, {"favorites", "list"}} {
		listCmd, _, err := cmd.Find(path)
		require.NoError(t, err)

		for _, name := range []string{"search", "category", "min", "max", "sort", "page", "limit", "resume"} {
			assert.NotNil(t, listCmd.Flags().Lookup(name), "%v --%s", path, name)
		}
		assert.Equal(t, "s", listCmd.Flags().Lookup("search").Shorthand)
		assert.Equal(t, "match title or artist name", listCmd.Flags().Lookup("search").Usage)
		assert.Equal(t, "n", listCmd.Flags().Lookup("limit").Shorthand)
	}
}

func TestArtworkCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"add", "edit"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		for _, flag := range []string{"title", "category", "medium", "description", "dimensions", "image", "price", "visibility"} {
			assert.NotNil(t, sub.Flags().Lookup(flag), "%s --%s", name, flag)
		}
	}
}

func TestRestoreCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	restoreCmd, _, err := cmd.Find([]string{"restore"})
	require.NoError(t, err)

	inputFlag := restoreCmd.Flags().Lookup("input")
	require.NotNil(t, inputFlag)
	assert.Equal(t, "i", inputFlag.Shorthand)
	require.NotNil(t, restoreCmd.Flags().Lookup("force"))
	require.NotNil(t, restoreCmd.Flags().Lookup("data-dir"))
}
