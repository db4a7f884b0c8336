package git

import (
	"context"
	stderrors "errors"
	"net"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// GoGitTransport clones in-process with go-git. It needs no git binary.
type GoGitTransport struct{}

// Clone runs a single-branch clone without tags. go-git errors are mapped
// onto the exit statuses the git tool would report.
func (GoGitTransport) Clone(ctx context.Context, req CloneRequest) error {
	_, err := gogit.PlainCloneContext(ctx, req.Dir, false, &gogit.CloneOptions{
		URL:          req.URL,
		Depth:        req.Depth,
		SingleBranch: true,
		Tags:         gogit.NoTags,
		Progress:     req.Progress,
	})
	if err == nil {
		return nil
	}
	return &CommandError{Status: goGitStatus(err), Stderr: err.Error(), Err: err}
}

func goGitStatus(err error) int {
	switch {
	case stderrors.Is(err, transport.ErrRepositoryNotFound),
		stderrors.Is(err, transport.ErrEmptyRemoteRepository),
		stderrors.Is(err, transport.ErrAuthenticationRequired),
		stderrors.Is(err, transport.ErrAuthorizationFailed),
		stderrors.Is(err, transport.ErrInvalidAuthMethod):
		return ExitCommandFailed
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return ExitToolUnavailable
	}
	return -1
}
