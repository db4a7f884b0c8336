package git

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/NicabarNimble/punica-box/internal/errors"
	"github.com/NicabarNimble/punica-box/internal/progress"
	"github.com/NicabarNimble/punica-box/internal/urlutils"
	log "github.com/sirupsen/logrus"
)

// Exit statuses reported by a failed clone.
const (
	// ExitToolUnavailable means the clone command could not be invoked.
	ExitToolUnavailable = 126
	// ExitCommandFailed means the clone command ran and failed, e.g. the
	// remote rejected the request.
	ExitCommandFailed = 128

	// DefaultDepth makes every clone shallow.
	DefaultDepth = 1
)

// CloneRequest describes a single clone for a Transport.
type CloneRequest struct {
	URL      string
	Dir      string
	Depth    int
	Progress io.Writer // receives git's raw progress output
}

// Transport performs the actual clone.
type Transport interface {
	Clone(ctx context.Context, req CloneRequest) error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req CloneRequest) error

// Clone calls f(ctx, req).
func (f TransportFunc) Clone(ctx context.Context, req CloneRequest) error {
	return f(ctx, req)
}

// CommandError is returned by transports when a clone fails.
type CommandError struct {
	Status int    // exit status of the clone command
	Stderr string // diagnostic output
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("git clone failed with status %d", e.Status)
	}
	return fmt.Sprintf("git clone failed with status %d: %s", e.Status, strings.TrimSpace(e.Stderr))
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Cloner performs shallow clones with progress reporting.
type Cloner struct {
	transport    Transport
	depth        int
	allowedHosts []string
	logger       *log.Entry
}

// ClonerOption configures a Cloner.
type ClonerOption func(*Cloner)

// WithDepth overrides the clone depth. Zero clones full history.
func WithDepth(depth int) ClonerOption {
	return func(c *Cloner) {
		c.depth = depth
	}
}

// WithAllowedHosts accepts repository URLs on hosts other than GitHub.
func WithAllowedHosts(hosts ...string) ClonerOption {
	return func(c *Cloner) {
		c.allowedHosts = append(c.allowedHosts, hosts...)
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *log.Entry) ClonerOption {
	return func(c *Cloner) {
		c.logger = logger
	}
}

// NewCloner creates a Cloner using transport.
func NewCloner(transport Transport, opts ...ClonerOption) *Cloner {
	c := &Cloner{
		transport: transport,
		depth:     DefaultDepth,
		logger:    log.NewEntry(log.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clone clones repoURL into target, feeding progress events to p. The target
// is expected to be empty. Once the transport returns, phases that started
// but never reached 100% are marked failed. Failures are classified into
// NetworkError, ToolError or OtherError.
func (c *Cloner) Clone(ctx context.Context, repoURL, target string, p *progress.Progress) error {
	if repoURL == "" {
		return errors.New("clone", fmt.Errorf("repository URL must be specified"))
	}
	if target == "" {
		return errors.New("clone", fmt.Errorf("target directory must be specified"))
	}

	// file:// URLs are used for local mirrors and tests
	if !strings.HasPrefix(repoURL, "file://") {
		if err := urlutils.ValidateURL(repoURL, c.allowedHosts...); err != nil {
			return errors.New("clone", fmt.Errorf("invalid repository URL: %w", err))
		}
	}

	if p == nil {
		p = progress.NewProgress()
	}

	pw := newProgressWriter(p)
	logger := c.logger.WithField("url", repoURL).WithField("target", target)
	logger.Debug("Cloning box repository")

	err := c.transport.Clone(ctx, CloneRequest{
		URL:      repoURL,
		Dir:      target,
		Depth:    c.depth,
		Progress: pw,
	})
	pw.Flush()

	if failed := p.Reconcile(); failed > 0 {
		logger.WithField("phases", failed).Debug("Clone finished with unfinished progress phases")
	}

	if err != nil {
		logger.WithError(err).Debug("Clone failed")
		return classifyCloneError(err)
	}
	return nil
}

// classifyCloneError translates a transport failure into a box error kind.
func classifyCloneError(err error) error {
	var cmdErr *CommandError
	if !stderrors.As(err, &cmdErr) {
		return errors.NewOtherError("clone", err.Error(), err)
	}

	switch cmdErr.Status {
	case ExitToolUnavailable:
		return errors.NewBoxError(errors.KindNetwork, "clone", "check your network.", err)
	case ExitCommandFailed:
		return errors.NewBoxError(errors.KindTool, "clone", "check your Git tool.", err)
	default:
		return errors.NewOtherError("clone", cmdErr.Stderr, err)
	}
}
