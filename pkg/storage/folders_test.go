package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalFoldersEnsureFolderIdempotent(t *testing.T) {
	dir := t.TempDir()
	folders, err := NewLocalFolders(dir, "http://localhost:8080/folders")
	require.NoError(t, err)

	url, err := folders.EnsureFolder("thesis-submissions/thesis-submission/event-1")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/folders/thesis-submissions/thesis-submission/event-1", url)
	require.True(t, folders.FolderExists("thesis-submissions/thesis-submission/event-1"))

	again, err := folders.EnsureFolder("thesis-submissions/thesis-submission/event-1")
	require.NoError(t, err)
	require.Equal(t, url, again)
}

func TestLocalFoldersRejectsTraversal(t *testing.T) {
	folders, err := NewLocalFolders(t.TempDir(), "http://localhost:8080/folders")
	require.NoError(t, err)

	_, err = folders.EnsureFolder("../outside")
	require.Error(t, err)
	require.False(t, folders.FolderExists("../outside"))
}
