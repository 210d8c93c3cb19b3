package source

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"regexp"
)

var (
	// ErrNotFound indicates that a bundled resource does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrUnexpectedStatus indicates a non-2xx response when fetching a URL.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)

var urlPattern = regexp.MustCompile(`^[a-zA-Z]{2,}:/.*`)

// Kind describes how a configuration target is located.
type Kind int

const (
	KindResource Kind = iota
	KindURL
)

func (k Kind) String() string {
	if k == KindURL {
		return "url"
	}
	return "resource"
}

// IsURL reports whether target looks like an URL: a scheme of at least two
// letters followed by ":/".
func IsURL(target string) bool {
	return urlPattern.MatchString(target)
}

// Classify returns KindURL for URLs. Everything else is looked up as a
// bundled resource first and as a file second.
func Classify(target string) Kind {
	if IsURL(target) {
		return KindURL
	}
	return KindResource
}

// Opener opens configuration streams from bundled resources, the filesystem
// or URLs.
type Opener struct {
	resources fs.FS
	client    *http.Client
}

// NewOpener returns an opener for the given resource filesystem and HTTP
// client. A nil resources disables resource lookups; a nil client uses
// http.DefaultClient.
func NewOpener(resources fs.FS, client *http.Client) *Opener {
	if client == nil {
		client = http.DefaultClient
	}
	return &Opener{resources: resources, client: client}
}

// OpenOverride opens an explicitly configured target. URLs are fetched,
// anything else is read as a resource or, if there is no such resource, as a
// file.
func (o *Opener) OpenOverride(target string) (io.ReadCloser, error) {
	if Classify(target) == KindURL {
		return o.OpenURL(target)
	}

	stream, err := o.OpenResource(target)
	if err == nil {
		return stream, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return o.OpenFile(target)
}

// OpenResource opens a bundled resource. It returns ErrNotFound if the
// resource does not exist.
func (o *Opener) OpenResource(name string) (io.ReadCloser, error) {
	if o.resources == nil || !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	file, err := o.resources.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("open resource %s: %w", name, err)
	}

	info, err := file.Stat()
	if err == nil && info.IsDir() {
		_ = file.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, name)
	}
	return file, nil
}

// OpenFile opens a file from the filesystem.
func (o *Opener) OpenFile(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return file, nil
}

// OpenURL opens a "file:" URL from the filesystem and fetches anything else
// with the HTTP client.
func (o *Opener) OpenURL(rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	if u.Scheme == "file" {
		return o.OpenFile(u.Path)
	}

	resp, err := o.client.Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.Redacted(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, u.Redacted(), resp.StatusCode)
	}
	return resp.Body, nil
}
