// Package box provisions project directories from box repositories: it
// checks the destination, clones the box and applies its ignore manifest.
package box

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/NicabarNimble/punica-box/internal/errors"
	"github.com/NicabarNimble/punica-box/internal/urlutils"
)

// Prober reports whether a repository URL exists.
type Prober interface {
	RepositoryExists(ctx context.Context, repoURL string) (bool, error)
}

// Checker validates that a box can be unpacked into a target directory.
type Checker struct {
	fs       afero.Fs
	resolver urlutils.Resolver
	prober   Prober
}

// NewChecker creates a Checker.
func NewChecker(fs afero.Fs, resolver urlutils.Resolver, prober Prober) *Checker {
	return &Checker{fs: fs, resolver: resolver, prober: prober}
}

// Check resolves boxName and makes sure target is an empty directory and the
// box repository exists. It returns the resolved repository URL.
//
// The target is created if missing. The emptiness check happens before any
// network call, so a non-empty target never costs a probe.
func (c *Checker) Check(ctx context.Context, target, boxName string) (string, error) {
	repoURL, err := c.resolver.Resolve(boxName)
	if err != nil {
		return "", err
	}

	if err := c.ensureEmptyDir(target); err != nil {
		return "", err
	}

	exists, err := c.prober.RepositoryExists(ctx, repoURL)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", errors.NewBoxError(errors.KindBoxNotFound, "check",
			fmt.Sprintf("box %s doesn't exist", boxName), nil)
	}
	return repoURL, nil
}

func (c *Checker) ensureEmptyDir(target string) error {
	info, err := c.fs.Stat(target)
	switch {
	case err == nil && !info.IsDir():
		return errors.New("check", fmt.Errorf("%s is not a directory", target))
	case err != nil && !os.IsNotExist(err):
		return errors.New("check", fmt.Errorf("failed to stat target: %w", err))
	case err != nil:
		if err := c.fs.MkdirAll(target, 0755); err != nil {
			return errors.New("check", fmt.Errorf("failed to create target: %w", err))
		}
		return nil
	}

	empty, err := afero.IsEmpty(c.fs, target)
	if err != nil {
		return errors.New("check", fmt.Errorf("failed to read target: %w", err))
	}
	if !empty {
		return errors.NewBoxError(errors.KindTargetNotEmpty, "check",
			fmt.Sprintf("%s is not empty", target), nil)
	}
	return nil
}
