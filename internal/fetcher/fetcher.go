// Package fetcher acquires input CSVs from local paths, HTTP(S) URLs, and
// FTP URLs, and normalizes their text encoding before parsing.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/config"
)

// Fetcher downloads remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// Client resolves input sources of any supported scheme.
type Client struct {
	http Fetcher
	ftp  Fetcher
}

// NewClient builds a source client from the fetch config.
func NewClient(cfg config.FetchConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	return &Client{
		http: NewHTTPFetcher(HTTPOptions{
			UserAgent:  cfg.UserAgent,
			Timeout:    timeout,
			MaxRetries: cfg.MaxRetries,
			RPS:        cfg.RPS,
		}),
		ftp: NewFTPFetcher(FTPOptions{Timeout: timeout}),
	}
}

// Fetch resolves a source (local path, http(s) URL, or ftp URL) into a
// filename and its encoding-normalized contents.
func (c *Client) Fetch(ctx context.Context, source string) (string, []byte, error) {
	var raw []byte
	var name string

	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		body, err := c.http.Download(ctx, source)
		if err != nil {
			return "", nil, err
		}
		defer body.Close()
		raw, err = io.ReadAll(body)
		if err != nil {
			return "", nil, eris.Wrap(err, "fetcher: read http body")
		}
		name = urlFilename(source)

	case strings.HasPrefix(source, "ftp://"):
		body, err := c.ftp.Download(ctx, source)
		if err != nil {
			return "", nil, err
		}
		defer body.Close()
		raw, err = io.ReadAll(body)
		if err != nil {
			return "", nil, eris.Wrap(err, "fetcher: read ftp body")
		}
		name = urlFilename(source)

	default:
		var err error
		raw, err = os.ReadFile(source)
		if err != nil {
			return "", nil, eris.Wrapf(err, "fetcher: read file %s", source)
		}
		name = filepath.Base(source)
	}

	data, err := NormalizeText(raw)
	if err != nil {
		return "", nil, err
	}
	return name, data, nil
}

// urlFilename derives an upload filename from a URL path, defaulting to
// input.csv when the path carries none.
func urlFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "input.csv"
	}
	base := path.Base(u.Path)
	if base == "" || base == "." || base == "/" {
		return "input.csv"
	}
	return base
}
