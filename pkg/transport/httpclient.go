package transport

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/richard-senior/xgscore/internal/logger"
)

const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// StatusError is returned for any non 200 response
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s returned error status %d", e.URL, e.StatusCode)
}

// Retryable reports whether the status is worth another attempt
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Options configures a Client
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// CABundle is an extra PEM bundle appended to the system roots, for
	// corporate proxies that re-sign TLS. "~/" is expanded.
	CABundle string
	// MaxBodyBytes caps decoded response size, zero means unlimited
	MaxBodyBytes int64
}

// Client fetches HTML pages the way a browser would
type Client struct {
	http      *http.Client
	userAgent string
	maxBody   int64
}

// NewClient builds a client with the system cert pool plus any CA bundle
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	rootCAs, err := x509.SystemCertPool()
	if err != nil {
		logger.Warn("Failed to get system cert pool", err)
		rootCAs = x509.NewCertPool()
	}
	if opts.CABundle != "" {
		if pem, err := os.ReadFile(expandHome(opts.CABundle)); err != nil {
			logger.Warn("Proceeding without CA bundle", opts.CABundle, err)
		} else if !rootCAs.AppendCertsFromPEM(pem) {
			logger.Warn("Failed to append CA bundle", opts.CABundle)
		} else {
			logger.Debug("Added CA bundle to root CAs", opts.CABundle)
		}
	}

	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{RootCAs: rootCAs},
				Proxy:           http.ProxyFromEnvironment,
			},
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
	}
}

// WithHTTPClient swaps the underlying client, used by tests
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// GetHtml fetches a page and returns the decoded body
func (c *Client) GetHtml(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// look like a browser
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	reader, err := decodeBody(resp)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var r io.Reader = reader
	if c.maxBody > 0 {
		r = io.LimitReader(reader, c.maxBody+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if c.maxBody > 0 && int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", pageURL, c.maxBody)
	}
	return data, nil
}

// decodeBody handles Content-Encoding. Go's transport only decompresses gzip
// transparently when it set the header itself, which it does not here.
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch encoding {
	case "gzip":
		r, err := NewGzipReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return r, nil
	case "deflate":
		return NewDeflateReader(resp.Body)
	case "br":
		return NewBrotliReader(resp.Body)
	case "", "identity":
		return io.NopCloser(resp.Body), nil
	default:
		logger.Warn("Unknown content encoding:", encoding)
		return io.NopCloser(resp.Body), nil
	}
}

// NewGzipReader creates a gzip reader from the provided io.ReadCloser
func NewGzipReader(r io.ReadCloser) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// NewDeflateReader creates a reader for Content-Encoding deflate, which is
// zlib wrapped. Some servers send a raw deflate stream instead, so the
// zlib header is checked first and raw deflate is read when it is missing.
func NewDeflateReader(r io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(2)
	if err == nil && isZlibHeader(header[0], header[1]) {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

// isZlibHeader checks the RFC 1950 CMF and FLG bytes
func isZlibHeader(cmf, flg byte) bool {
	return cmf&0x0f == 8 && cmf>>4 <= 7 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// NewBrotliReader creates a brotli reader from the provided io.ReadCloser
func NewBrotliReader(r io.ReadCloser) (io.ReadCloser, error) {
	return io.NopCloser(brotli.NewReader(r)), nil
}
