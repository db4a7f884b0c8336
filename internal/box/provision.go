package box

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/NicabarNimble/punica-box/internal/errors"
	"github.com/NicabarNimble/punica-box/internal/progress"
)

// Workflow stages reported to the Tracker
const (
	StagePrepare  = "Preparing to download"
	StageDownload = "Downloading"
	StageUnpack   = "Unpacking"
)

// DefaultInitBox is the box Init unpacks unless configured otherwise.
const DefaultInitBox = "punica-init-default"

// getwd is a variable so it can be mocked in tests
var getwd = os.Getwd

// Cloner clones a repository into an empty directory.
type Cloner interface {
	Clone(ctx context.Context, repoURL, target string, p *progress.Progress) error
}

// Provisioner runs the unbox workflow.
type Provisioner struct {
	Checker  *Checker
	Cloner   Cloner
	Fs       afero.Fs
	Tracker  progress.Tracker
	Renderer progress.Renderer
	Logger   *log.Entry
	InitBox  string
}

// Result describes a successful unbox.
type Result struct {
	URL    string
	Target string
	// Cleaned is true when the box manifest was applied in full.
	Cleaned bool
	// CleanupErr is set when the box was unpacked but its manifest could
	// not be applied. The unbox still counts as successful.
	CleanupErr error
}

// Unbox checks target, clones boxName into it and applies the box manifest.
// An empty target means the current working directory.
//
// Check and clone failures are returned unchanged. A manifest failure does
// not fail the unbox; it is reported in Result.CleanupErr.
func (p *Provisioner) Unbox(ctx context.Context, boxName, target string) (*Result, error) {
	if target == "" {
		wd, err := getwd()
		if err != nil {
			return nil, errors.New("unbox", fmt.Errorf("failed to get working directory: %w", err))
		}
		target = wd
	}

	tracker := p.tracker()
	logger := p.logger().WithField("box", boxName).WithField("target", target)

	tracker.Start(StagePrepare)
	repoURL, err := p.Checker.Check(ctx, target, boxName)
	if err != nil {
		tracker.Error(err)
		logger.WithError(err).Debug("Precondition check failed")
		return nil, err
	}
	tracker.Complete()

	tracker.Start(StageDownload)
	phases := progress.NewProgress(progress.WithRenderer(downloadFeed{tracker: tracker, next: p.Renderer}))
	if err := p.Cloner.Clone(ctx, repoURL, target, phases); err != nil {
		tracker.Error(err)
		logger.WithError(err).Debug("Clone failed")
		return nil, err
	}
	tracker.Complete()

	result := &Result{URL: repoURL, Target: target}

	tracker.Start(StageUnpack)
	cleaned, err := ApplyIgnoreManifest(p.fs(), target)
	result.Cleaned = cleaned
	if err != nil {
		result.CleanupErr = err
		tracker.Error(err)
		logger.WithError(err).Warn("Box unpacked but its manifest could not be applied")
		return result, nil
	}
	tracker.Complete()

	logger.WithField("url", repoURL).Info("Box unpacked")
	return result, nil
}

// Init unboxes the init box into target.
func (p *Provisioner) Init(ctx context.Context, target string) (*Result, error) {
	name := p.InitBox
	if name == "" {
		name = DefaultInitBox
	}
	return p.Unbox(ctx, name, target)
}

// downloadFeed reports the Receiving phase as the progress of the download
// stage and passes every phase change on to next.
type downloadFeed struct {
	tracker progress.Tracker
	next    progress.Renderer
}

func (f downloadFeed) RenderPhase(t progress.PhaseTracker) {
	if t.Phase == progress.PhaseReceiving {
		f.tracker.Update(t.Current, t.Max)
	}
	if f.next != nil {
		f.next.RenderPhase(t)
	}
}

func (p *Provisioner) tracker() progress.Tracker {
	if p.Tracker == nil {
		p.Tracker = &progress.DefaultTracker{}
	}
	return p.Tracker
}

func (p *Provisioner) logger() *log.Entry {
	if p.Logger == nil {
		p.Logger = log.NewEntry(log.StandardLogger())
	}
	return p.Logger
}

func (p *Provisioner) fs() afero.Fs {
	if p.Fs == nil {
		p.Fs = afero.NewOsFs()
	}
	return p.Fs
}
