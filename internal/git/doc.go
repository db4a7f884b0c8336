// Package git clones box repositories.
//
// Cloner performs a shallow clone through a Transport and reports git's
// progress output to a progress.Progress as phase events (counting,
// compressing, receiving, resolving). Two transports are provided:
//
// ExecTransport runs the git command line tool. Its exit status drives the
// failure classification.
//
// GoGitTransport clones in-process with go-git and maps go-git errors onto
// the same exit statuses.
//
// Example Usage:
//
//	cloner := NewCloner(&ExecTransport{})
//	p := progress.NewProgress(progress.WithRenderer(progress.NewConsoleRenderer(os.Stdout)))
//	if err := cloner.Clone(ctx, "https://github.com/punica-box/erc20-box.git", dir, p); err != nil {
//	    log.Fatalf("clone failed: %v", err)
//	}
//
// Error Handling:
//
// Failed clones are classified by the transport's exit status.
// ExitToolUnavailable becomes a NetworkError, ExitCommandFailed becomes a
// ToolError and any other status becomes an OtherError carrying the
// transport's diagnostic output unchanged.
//
// Thread Safety:
//
// A Cloner may be shared, but each clone needs its own Progress.
package git
