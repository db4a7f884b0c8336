// Package urlutils resolves box identifiers to repository URLs and validates
// the HTTPS URLs handed to the cloner. It supports public GitHub, GitHub
// Enterprise Cloud and any additional host the caller explicitly allows.
package urlutils

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	// ErrInvalidURL indicates that the provided URL is not valid
	ErrInvalidURL = errors.New("invalid URL format")

	// ErrInvalidHost indicates that the host is not a valid GitHub instance
	ErrInvalidHost = errors.New("invalid GitHub host")

	// ErrInvalidPath indicates that the URL path is not a valid repository path
	ErrInvalidPath = errors.New("invalid repository path")

	// ErrNotHTTPS indicates that the URL does not use HTTPS protocol
	ErrNotHTTPS = errors.New("URL must use HTTPS protocol")

	ownerRegex = regexp.MustCompile(`^[a-zA-Z0-9-]{1,39}$`)
	repoRegex  = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,100}$`)
)

// ParseHTTPSURL parses and validates a repository HTTPS URL.
// It accepts URLs in the following formats:
//   - https://github.com/owner/repo
//   - https://github.com/owner/repo.git
//   - https://<allowed host>/owner/repo.git
//
// allowedHosts extends the accepted hosts beyond github.com and *.github.com.
func ParseHTTPSURL(rawURL string, allowedHosts ...string) (*url.URL, error) {
	if strings.HasPrefix(rawURL, "git@") {
		return nil, ErrNotHTTPS
	}
	if !strings.HasPrefix(rawURL, "https://") {
		return nil, ErrInvalidURL
	}

	rawURL = sanitizeURL(strings.TrimSuffix(rawURL, ".git"))

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if !isValidHost(parsedURL.Host, allowedHosts) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHost, parsedURL.Host)
	}

	pathParts := strings.Split(strings.Trim(parsedURL.Path, "/"), "/")
	if len(pathParts) != 2 {
		return nil, fmt.Errorf("%w: URL must include owner and repository", ErrInvalidPath)
	}

	if !ownerRegex.MatchString(pathParts[0]) {
		return nil, fmt.Errorf("%w: invalid owner name format", ErrInvalidPath)
	}

	if !repoRegex.MatchString(pathParts[1]) {
		return nil, fmt.Errorf("%w: invalid repository name format", ErrInvalidPath)
	}

	return parsedURL, nil
}

// ValidateURL checks if the provided URL is a valid repository URL.
func ValidateURL(rawURL string, allowedHosts ...string) error {
	_, err := ParseHTTPSURL(rawURL, allowedHosts...)
	return err
}

// isValidHost accepts github.com, GitHub Enterprise Cloud subdomains and
// any explicitly allowed host.
func isValidHost(host string, allowedHosts []string) bool {
	if host == "" {
		return false
	}
	if host == "github.com" || strings.HasSuffix(host, ".github.com") {
		return true
	}
	for _, allowed := range allowedHosts {
		if strings.EqualFold(host, allowed) {
			return true
		}
	}
	return false
}

// sanitizeURL removes any credentials from the URL
func sanitizeURL(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		u.User = nil
		return u.String()
	}
	return rawURL
}
