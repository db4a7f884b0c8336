package box

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/NicabarNimble/punica-box/internal/errors"
)

// ManifestFile is the name of the manifest a box ships at its root.
const ManifestFile = "punica-box.json"

// Manifest lists paths, relative to the box root, that are removed after the
// box has been unpacked.
type Manifest struct {
	Ignore []string `json:"ignore"`
}

// ReadManifest reads and parses the manifest in target. A missing manifest
// is reported as (nil, nil).
func ReadManifest(fs afero.Fs, target string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, filepath.Join(target, ManifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.New("manifest", fmt.Errorf("failed to read %s: %w", ManifestFile, err))
	}

	var raw struct {
		Ignore *[]string `json:"ignore"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.New("manifest", fmt.Errorf("failed to parse %s: %w", ManifestFile, err))
	}
	if raw.Ignore == nil {
		return nil, errors.New("manifest", fmt.Errorf("%s has no ignore field", ManifestFile))
	}
	return &Manifest{Ignore: *raw.Ignore}, nil
}

// ApplyIgnoreManifest removes the manifest from target and then every path
// it lists, in order. It returns true when the manifest was applied in full.
//
// Without a manifest it returns (false, nil). Entries that do not exist are
// skipped, as are entries that leave target, lexically or through a
// symlinked parent directory. A removal failure stops processing and is
// reported as a ManifestPartialFailure; paths already removed stay removed.
func ApplyIgnoreManifest(fs afero.Fs, target string) (bool, error) {
	m, err := ReadManifest(fs, target)
	if err != nil || m == nil {
		return false, err
	}

	logger := log.WithField("target", target)
	if err := fs.Remove(filepath.Join(target, ManifestFile)); err != nil {
		return false, errors.NewBoxError(errors.KindManifestPartialFailure, "manifest",
			"failed to remove "+ManifestFile, err)
	}

	for _, entry := range m.Ignore {
		path, ok := entryPath(target, entry)
		if ok {
			ok, err = insideTarget(fs, target, path)
			if err != nil {
				return false, errors.NewBoxError(errors.KindManifestPartialFailure, "manifest",
					fmt.Sprintf("failed to inspect %s", entry), err)
			}
		}
		if !ok {
			logger.WithField("entry", entry).Warn("Skipping ignore entry outside the box")
			continue
		}

		info, err := lstat(fs, path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return false, errors.NewBoxError(errors.KindManifestPartialFailure, "manifest",
				fmt.Sprintf("failed to inspect %s", entry), err)
		}

		// a symlink entry removes the link, never what it points to
		if info.Mode()&os.ModeSymlink != 0 {
			err = fs.Remove(path)
		} else {
			err = fs.RemoveAll(path)
		}
		if err != nil {
			return false, errors.NewBoxError(errors.KindManifestPartialFailure, "manifest",
				fmt.Sprintf("failed to remove %s", entry), err)
		}
		logger.WithField("entry", entry).Debug("Removed ignored path")
	}
	return true, nil
}

// insideTarget reports whether path, already lexically under target, can be
// reached without following a symlink. A missing parent means the entry does
// not exist and is reported as inside.
func insideTarget(fs afero.Fs, target, path string) (bool, error) {
	rel, err := filepath.Rel(target, path)
	if err != nil {
		return false, nil
	}
	parts := strings.Split(rel, string(filepath.Separator))

	current := target
	for _, part := range parts[:len(parts)-1] {
		current = filepath.Join(current, part)
		info, err := lstat(fs, current)
		if err != nil {
			if os.IsNotExist(err) {
				return true, nil
			}
			return false, err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return false, nil
		}
	}
	return true, nil
}

// lstat does not follow a trailing symlink when fs supports it.
func lstat(fs afero.Fs, path string) (os.FileInfo, error) {
	if l, ok := fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return fs.Stat(path)
}

// entryPath joins a manifest entry onto target. Absolute entries and entries
// that climb out of target are rejected.
func entryPath(target, entry string) (string, bool) {
	if entry == "" || filepath.IsAbs(entry) {
		return "", false
	}
	rel := filepath.Clean(entry)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.Join(target, rel), true
}
