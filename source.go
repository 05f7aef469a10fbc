package vview

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Source opens the byte stream of a zip animation.
type Source interface {
	// Open starts reading. The stream must stop when ctx is cancelled.
	Open(ctx context.Context) (io.ReadCloser, error)
	// SelfDescribing reports whether the archive's first entry is its own
	// manifest. Remote archives are not; their manifest comes with the
	// media info.
	SelfDescribing() bool
}

// FileSource reads a local archive. Local archives carry their manifest as
// the first entry.
type FileSource struct {
	Path string
}

// Open opens the file.
func (s FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open animation: %w", err)
	}
	return &ctxReader{ctx: ctx, rc: f}, nil
}

// SelfDescribing is always true.
func (FileSource) SelfDescribing() bool { return true }

// BytesSource plays an archive already in memory, such as one from a cache.
type BytesSource struct {
	Data []byte
	// Local marks the archive as carrying its own manifest.
	Local bool
}

// Open returns a reader over Data.
func (s BytesSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return &ctxReader{ctx: ctx, rc: io.NopCloser(bytes.NewReader(s.Data))}, nil
}

// SelfDescribing returns Local.
func (s BytesSource) SelfDescribing() bool { return s.Local }

// HTTPSource downloads a remote archive.
type HTTPSource struct {
	URL string
	// Header is added to the request, for example a Referer.
	Header http.Header
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

// Open issues the request. The body is read as the player consumes it.
func (s HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("animation request: %w", err)
	}
	for k, vs := range s.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("animation request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("animation request: %s: %s", s.URL, resp.Status)
	}
	return resp.Body, nil
}

// SelfDescribing is always false.
func (HTTPSource) SelfDescribing() bool { return false }

// ctxReader stops reading once its context is done. Reads after that fail
// with ErrAborted.
type ctxReader struct {
	ctx context.Context
	rc  io.ReadCloser
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAborted, err)
	}
	return r.rc.Read(p)
}

func (r *ctxReader) Close() error { return r.rc.Close() }
