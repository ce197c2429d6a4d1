package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Multipart field names the backend expects.
const (
	singleFileField = "file"
	multiFileField  = "files"
)

// FallbackFilename is used when neither the caller nor the
// Content-Disposition header names a download.
const FallbackFilename = "download"

// FilePart is one file in a multipart upload.
type FilePart struct {
	Name   string
	Reader io.Reader
}

// MultipartBody is a fully encoded multipart payload. The content type
// (carrying the boundary) comes from the body itself; the executor never
// injects its own.
type MultipartBody struct {
	buf         bytes.Buffer
	contentType string
}

// NewMultipartBody encodes files and scalar metadata fields. A single
// file is sent under the "file" field; several files repeat the "files"
// field. Metadata fields are written in sorted order so payloads are
// reproducible.
func NewMultipartBody(files []FilePart, fields map[string]string) (*MultipartBody, error) {
	m := &MultipartBody{}
	w := multipart.NewWriter(&m.buf)

	fileField := singleFileField
	if len(files) > 1 {
		fileField = multiFileField
	}
	for _, f := range files {
		part, err := w.CreateFormFile(fileField, f.Name)
		if err != nil {
			return nil, fmt.Errorf("create form file %q: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, fmt.Errorf("copy file %q: %w", f.Name, err)
		}
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := w.WriteField(name, fields[name]); err != nil {
			return nil, fmt.Errorf("write field %q: %w", name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	m.contentType = w.FormDataContentType()
	return m, nil
}

// Reader returns a fresh reader over the encoded payload.
func (m *MultipartBody) Reader() io.Reader {
	return bytes.NewReader(m.buf.Bytes())
}

// ContentType returns the multipart content type with its boundary.
func (m *MultipartBody) ContentType() string {
	return m.contentType
}

// Upload sends one or more files plus scalar metadata as a multipart POST
// through the normal executor path, so auth headers, timeouts and error
// classification apply unchanged.
func (c *Client) Upload(ctx context.Context, endpoint string, files []FilePart, fields map[string]string, opts RequestOptions) (json.RawMessage, error) {
	mp, err := NewMultipartBody(files, fields)
	if err != nil {
		return nil, Classify(err)
	}
	opts.Method = http.MethodPost
	opts.Body = mp
	return c.Do(ctx, endpoint, opts)
}

// Download is an open binary response. The caller owns Body and must
// close it; SaveTo does both.
type Download struct {
	Filename string
	// Length is the Content-Length, or -1 when unknown.
	Length int64
	Body   io.ReadCloser
}

// Download issues a GET expecting a binary body. The save filename is
// resolved from the explicit argument, then the Content-Disposition
// header, then the fixed fallback. The request timeout stays armed until
// Body is closed.
func (c *Client) Download(ctx context.Context, endpoint, filename string, opts RequestOptions) (*Download, error) {
	base := c.cfg.BaseURL
	if opts.BaseURL != "" {
		base = opts.BaseURL
	}
	resolved := joinEndpoint(base, c.cfg.VersionPrefix, endpoint)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.cfg.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		cancel()
		return nil, Classify(err)
	}
	c.applyHeaders(req, opts, "", false)

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		cancel()
		return nil, Classify(err)
	}

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		_, nerr := c.normalize(resp, body, false)
		if nerr == nil {
			nerr = &APIError{Status: resp.StatusCode, Code: CodeHTTPError, Message: http.StatusText(resp.StatusCode), Err: ErrHTTP}
		}
		return nil, Classify(nerr)
	}

	return &Download{
		Filename: resolveFilename(filename, resp.Header.Get("Content-Disposition")),
		Length:   resp.ContentLength,
		Body:     &cancelReadCloser{rc: resp.Body, cancel: cancel},
	}, nil
}

// cancelReadCloser releases the request's timeout when the body closes.
type cancelReadCloser struct {
	rc     io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Read(p []byte) (int, error) {
	return c.rc.Read(p)
}

func (c *cancelReadCloser) Close() error {
	c.cancel()
	return c.rc.Close()
}

// SaveTo writes the download into dir under its resolved filename and
// closes the body. It returns the written path. Path separators in the
// filename are stripped before joining.
func (d *Download) SaveTo(dir string) (string, error) {
	defer d.Body.Close()
	path := filepath.Join(dir, filepath.Base(d.Filename))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, d.Body); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// resolveFilename picks the save name: the caller-supplied name, then the
// Content-Disposition header, then the fixed fallback.
func resolveFilename(explicit, disposition string) string {
	if explicit != "" {
		return explicit
	}
	if name := dispositionFilename(disposition); name != "" {
		return name
	}
	return FallbackFilename
}

// dispositionFilename parses a Content-Disposition header, trying the
// RFC 5987 filename*=UTF-8''... form, then the quoted filename="..."
// form, then bare filename=.
func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	if idx := strings.Index(header, "filename*="); idx >= 0 {
		v := header[idx+len("filename*="):]
		if semi := strings.IndexByte(v, ';'); semi >= 0 {
			v = v[:semi]
		}
		v = strings.TrimSpace(v)
		v = strings.TrimPrefix(v, "UTF-8''")
		v = strings.TrimPrefix(v, "utf-8''")
		if decoded, err := url.PathUnescape(v); err == nil && decoded != "" {
			return decoded
		}
	}
	if idx := strings.Index(header, `filename="`); idx >= 0 {
		v := header[idx+len(`filename="`):]
		if end := strings.IndexByte(v, '"'); end > 0 {
			return v[:end]
		}
	}
	if idx := strings.Index(header, "filename="); idx >= 0 {
		v := header[idx+len("filename="):]
		if semi := strings.IndexByte(v, ';'); semi >= 0 {
			v = v[:semi]
		}
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
