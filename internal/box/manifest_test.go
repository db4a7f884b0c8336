package box

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NicabarNimble/punica-box/internal/errors"
)

// denyFs refuses to remove the listed paths.
type denyFs struct {
	afero.Fs
	denied map[string]bool
}

func (d *denyFs) RemoveAll(path string) error {
	if d.denied[filepath.Clean(path)] {
		return &os.PathError{Op: "remove", Path: path, Err: os.ErrPermission}
	}
	return d.Fs.RemoveAll(path)
}

func writeBox(t *testing.T, fs afero.Fs, target string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(target, name), []byte(content), 0644))
	}
}

func assertExists(t *testing.T, fs afero.Fs, path string, want bool) {
	t.Helper()
	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	assert.Equal(t, want, exists, path)
}

func TestApplyIgnoreManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeBox(t, fs, "/box", map[string]string{
		ManifestFile:       `{"ignore": ["README.md", "docs", "missing.txt"]}`,
		"README.md":        "readme",
		"docs/guide.md":    "guide",
		"docs/img/a.png":   "png",
		"contracts/app.py": "code",
	})

	applied, err := ApplyIgnoreManifest(fs, "/box")
	require.NoError(t, err)
	assert.True(t, applied)

	assertExists(t, fs, "/box/"+ManifestFile, false)
	assertExists(t, fs, "/box/README.md", false)
	assertExists(t, fs, "/box/docs", false)
	assertExists(t, fs, "/box/contracts/app.py", true)
}

func TestApplyIgnoreManifestAbsent(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeBox(t, fs, "/box", map[string]string{"README.md": "readme"})

	applied, err := ApplyIgnoreManifest(fs, "/box")
	assert.NoError(t, err)
	assert.False(t, applied)
	assertExists(t, fs, "/box/README.md", true)
}

func TestApplyIgnoreManifestInvalid(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{"malformed json", `{"ignore": [`},
		{"missing ignore field", `{"name": "tutorial"}`},
		{"ignore is not a list", `{"ignore": "README.md"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeBox(t, fs, "/box", map[string]string{
				ManifestFile: tt.manifest,
				"README.md":  "readme",
			})

			applied, err := ApplyIgnoreManifest(fs, "/box")
			assert.False(t, applied)

			var opErr *errors.OperationError
			require.ErrorAs(t, err, &opErr)
			assert.Equal(t, "manifest", opErr.Op)

			assertExists(t, fs, "/box/"+ManifestFile, true)
			assertExists(t, fs, "/box/README.md", true)
		})
	}
}

func TestApplyIgnoreManifestPermissionDenied(t *testing.T) {
	base := afero.NewMemMapFs()
	writeBox(t, base, "/box", map[string]string{
		ManifestFile: `{"ignore": ["a.txt", "locked", "c.txt"]}`,
		"a.txt":      "a",
		"locked/b":   "b",
		"c.txt":      "c",
	})
	fs := &denyFs{Fs: base, denied: map[string]bool{"/box/locked": true}}

	applied, err := ApplyIgnoreManifest(fs, "/box")
	assert.False(t, applied)
	assert.ErrorIs(t, err, errors.ErrManifestPartialFailure)
	assert.ErrorIs(t, err, os.ErrPermission)

	// earlier removals stay, later entries are not attempted
	assertExists(t, fs, "/box/"+ManifestFile, false)
	assertExists(t, fs, "/box/a.txt", false)
	assertExists(t, fs, "/box/locked/b", true)
	assertExists(t, fs, "/box/c.txt", true)
}

func TestApplyIgnoreManifestSkipsEscapingEntries(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeBox(t, fs, "/work/box", map[string]string{
		ManifestFile: `{"ignore": ["../outside.txt", "/etc/passwd", ".", "./tmp/../notes.txt"]}`,
		"notes.txt":  "notes",
	})
	require.NoError(t, afero.WriteFile(fs, "/work/outside.txt", []byte("keep"), 0644))

	applied, err := ApplyIgnoreManifest(fs, "/work/box")
	require.NoError(t, err)
	assert.True(t, applied)

	assertExists(t, fs, "/work/outside.txt", true)
	assertExists(t, fs, "/work/box", true)
	assertExists(t, fs, "/work/box/notes.txt", false)
}

func TestEntryPath(t *testing.T) {
	tests := []struct {
		entry string
		want  string
		ok    bool
	}{
		{"README.md", "/box/README.md", true},
		{"docs/", "/box/docs", true},
		{"a/../b", "/box/b", true},
		{"..", "", false},
		{"../x", "", false},
		{"a/../../x", "", false},
		{"/abs", "", false},
		{"", "", false},
		{".", "", false},
		{"..hidden", "/box/..hidden", true},
	}

	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			got, ok := entryPath("/box", tt.entry)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyIgnoreManifestTrailingSlash(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeBox(t, fs, "/box", map[string]string{
		ManifestFile:   `{"ignore": ["a.txt", "sub/"]}`,
		"a.txt":        "a",
		"sub/nested/b": "b",
		"keep.txt":     "keep",
	})

	applied, err := ApplyIgnoreManifest(fs, "/box")
	require.NoError(t, err)
	assert.True(t, applied)

	assertExists(t, fs, "/box/a.txt", false)
	assertExists(t, fs, "/box/sub", false)
	assertExists(t, fs, "/box/keep.txt", true)
}

func TestApplyIgnoreManifestSymlinks(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "box")
	outside := filepath.Join(root, "home")
	require.NoError(t, os.MkdirAll(target, 0755))
	require.NoError(t, os.MkdirAll(outside, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "precious.txt"), []byte("keep"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(target, "local.txt"), []byte("x"), 0644))

	if err := os.Symlink(filepath.Join("..", "home"), filepath.Join(target, "link")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	require.NoError(t, os.Symlink(outside, filepath.Join(target, "direct")))

	manifest := `{"ignore": ["link/precious.txt", "direct", "local.txt"]}`
	require.NoError(t, os.WriteFile(filepath.Join(target, ManifestFile), []byte(manifest), 0644))

	fs := afero.NewOsFs()
	applied, err := ApplyIgnoreManifest(fs, target)
	require.NoError(t, err)
	assert.True(t, applied)

	// nothing outside the box is touched
	assertExists(t, fs, filepath.Join(outside, "precious.txt"), true)
	// a symlink entry removes the link only
	_, err = os.Lstat(filepath.Join(target, "direct"))
	assert.True(t, os.IsNotExist(err))
	// the entry behind the symlinked parent was skipped, the link stays
	_, err = os.Lstat(filepath.Join(target, "link"))
	assert.NoError(t, err)
	assertExists(t, fs, filepath.Join(target, "local.txt"), false)
}
