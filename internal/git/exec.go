package git

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strconv"
)

// execCommand is a variable so it can be mocked in tests
var execCommand = exec.CommandContext

// ExecTransport clones with the git command line tool.
type ExecTransport struct {
	GitPath string // defaults to "git" on PATH
}

// Clone runs git clone --progress. git's stderr is streamed to the progress
// writer; on failure its non-progress lines become the diagnostic payload.
func (t *ExecTransport) Clone(ctx context.Context, req CloneRequest) error {
	gitPath := t.GitPath
	if gitPath == "" {
		gitPath = "git"
	}

	args := []string{"clone", "--progress"}
	if req.Depth > 0 {
		args = append(args, "--depth", strconv.Itoa(req.Depth))
	}
	args = append(args, "--", req.URL, req.Dir)

	cmd := execCommand(ctx, gitPath, args...)
	var stderr bytes.Buffer
	if req.Progress != nil {
		cmd.Stderr = io.MultiWriter(&stderr, req.Progress)
	} else {
		cmd.Stderr = &stderr
	}
	cmd.Stdout = io.Discard
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_ASKPASS=")

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	switch {
	case stderrors.As(err, &exitErr):
		return &CommandError{Status: exitErr.ExitCode(), Stderr: errorOutput(stderr.String()), Err: err}
	case stderrors.Is(err, exec.ErrNotFound), stderrors.Is(err, fs.ErrNotExist), stderrors.Is(err, fs.ErrPermission):
		return &CommandError{Status: ExitToolUnavailable, Stderr: err.Error(), Err: err}
	default:
		return &CommandError{Status: -1, Stderr: err.Error(), Err: err}
	}
}
