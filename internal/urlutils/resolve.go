package urlutils

import (
	"fmt"
	"regexp"
	"strings"

	boxerrors "github.com/NicabarNimble/punica-box/internal/errors"
)

const (
	// DefaultHost is where boxes are hosted unless configured otherwise.
	DefaultHost = "https://github.com"
	// DefaultBoxOrg owns the boxes addressed by a bare name.
	DefaultBoxOrg = "punica-box"

	boxSuffix = "-box"
)

var (
	bareBoxRegex      = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	qualifiedBoxRegex = regexp.MustCompile(`^[A-Za-z0-9-]+/[A-Za-z0-9-]+$`)
)

// Resolver turns box identifiers into repository URLs.
type Resolver struct {
	Host string // scheme and host, e.g. https://github.com
	Org  string // owner of bare-named boxes
}

// DefaultResolver resolves against github.com/punica-box.
var DefaultResolver = Resolver{Host: DefaultHost, Org: DefaultBoxOrg}

// Resolve maps a bare box name to <host>/<org>/<name>-box.git and an
// owner/name identifier to <host>/<owner>/<name>.git. Any other shape is
// rejected with an InvalidBoxName error.
func (r Resolver) Resolve(identifier string) (string, error) {
	host := strings.TrimSuffix(r.Host, "/")
	if host == "" {
		host = DefaultHost
	}
	org := r.Org
	if org == "" {
		org = DefaultBoxOrg
	}

	switch {
	case bareBoxRegex.MatchString(identifier):
		return fmt.Sprintf("%s/%s/%s%s.git", host, org, identifier, boxSuffix), nil
	case qualifiedBoxRegex.MatchString(identifier):
		return fmt.Sprintf("%s/%s.git", host, identifier), nil
	default:
		return "", boxerrors.NewBoxError(boxerrors.KindInvalidBoxName, "resolve",
			fmt.Sprintf("invalid box name %q", identifier), nil)
	}
}

// ResolveBoxURL resolves identifier with the DefaultResolver.
func ResolveBoxURL(identifier string) (string, error) {
	return DefaultResolver.Resolve(identifier)
}
