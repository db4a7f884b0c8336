// Command punica-box unpacks Punica boxes: project templates hosted as git
// repositories.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/NicabarNimble/punica-box/internal/box"
	"github.com/NicabarNimble/punica-box/internal/config"
	"github.com/NicabarNimble/punica-box/internal/git"
	"github.com/NicabarNimble/punica-box/internal/github"
	"github.com/NicabarNimble/punica-box/internal/progress"
	"github.com/NicabarNimble/punica-box/internal/urlutils"
)

// errReported means the failure has already been explained to the user.
var errReported = stderrors.New("failure already reported")

// unboxer runs the provisioning workflow.
type unboxer interface {
	Unbox(ctx context.Context, boxName, target string) (*box.Result, error)
	Init(ctx context.Context, target string) (*box.Result, error)
}

// lister lists the published boxes.
type lister interface {
	ListBoxes(ctx context.Context) ([]string, error)
}

var (
	// loadConfigFunc, provisionerFunc and listerFunc allow for mocking in tests
	loadConfigFunc  = config.LoadConfig
	provisionerFunc = newProvisioner
	listerFunc      = newLister
)

type rootOptions struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "punica-box",
		Short: "Unpack Punica boxes into project directories",
		Long: `A CLI tool for starting Punica projects from boxes: template repositories
published under the punica-box GitHub organization or any owner/name repository.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigFunc(cmd.Context(), opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return setupLogging(cfg, opts.verbose, cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "Path to the configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		newUnboxCmd(opts),
		newInitCmd(opts),
		newListCmd(opts),
		newConfigCmd(opts),
	)

	return cmd
}

func setupLogging(cfg *config.Config, verbose bool, w io.Writer) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	log.SetOutput(w)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	return nil
}

// newProvisioner wires the provisioning workflow from cfg, printing
// progress to out.
func newProvisioner(cfg *config.Config, out io.Writer) unboxer {
	logger := log.WithField("component", "box")
	fs := afero.NewOsFs()

	var transport git.Transport = &git.ExecTransport{}
	if cfg.Transport == config.TransportGoGit {
		transport = git.GoGitTransport{}
	}

	client := github.NewClient(cfg.BoxOrg,
		github.WithBaseURL(cfg.GitHubAPIURL),
		github.WithTimeout(cfg.HTTPTimeout))

	return &box.Provisioner{
		Checker:  box.NewChecker(fs, urlutils.Resolver{Host: cfg.GitHubURL, Org: cfg.BoxOrg}, client),
		Cloner:   git.NewCloner(transport, git.WithAllowedHosts(cfg.GitHubHost()), git.WithLogger(logger)),
		Fs:       fs,
		Tracker:  progress.NewConsoleTracker(out),
		Renderer: progress.NewConsoleRenderer(out),
		Logger:   logger,
		InitBox:  cfg.InitBox,
	}
}

func newLister(cfg *config.Config) lister {
	return github.NewClient(cfg.BoxOrg,
		github.WithBaseURL(cfg.GitHubAPIURL),
		github.WithTimeout(cfg.HTTPTimeout))
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if !stderrors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
