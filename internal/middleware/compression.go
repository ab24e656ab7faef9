// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// minCompressBytes is the response size below which gzip costs more than
// it saves. Responses that never reach it go out unencoded.
const minCompressBytes = 1024

// compressibleTypes lists non-text content types worth compressing.
// Anything else (JPEG frames above all) is already entropy-coded and
// would only burn CPU.
var compressibleTypes = map[string]bool{
	"application/json":       true,
	"application/javascript": true,
	"image/svg+xml":          true,
}

func compressible(contentType string) bool {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.TrimSpace(contentType)
	return strings.HasPrefix(contentType, "text/") || compressibleTypes[contentType]
}

var gzipPool = sync.Pool{
	New: func() any {
		return gzip.NewWriter(io.Discard)
	},
}

// gzipResponseWriter defers the encoding decision until the response
// shape is known. Writes buffer until minCompressBytes; crossing it with
// a compressible content type engages gzip, and anything smaller is sent
// as-is when the handler returns.
type gzipResponseWriter struct {
	http.ResponseWriter
	status  int
	buf     []byte
	gz      *gzip.Writer
	decided bool
}

// WriteHeader records the status. The header block is not sent until the
// encoding decision is made; Content-Encoding cannot change afterwards.
func (w *gzipResponseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if w.decided {
		if w.gz != nil {
			return w.gz.Write(b)
		}
		return w.ResponseWriter.Write(b)
	}

	w.buf = append(w.buf, b...)
	if len(w.buf) >= minCompressBytes {
		if err := w.decide(); err != nil {
			return 0, err
		}
	}
	return len(b), nil
}

// decide locks in the encoding, sends the header block, and drains the
// buffer.
func (w *gzipResponseWriter) decide() error {
	w.decided = true

	status := w.status
	if status == 0 {
		status = http.StatusOK
	}

	header := w.Header()
	engage := len(w.buf) >= minCompressBytes &&
		status != http.StatusNoContent &&
		status != http.StatusNotModified &&
		header.Get("Content-Encoding") == "" &&
		compressible(w.contentType())

	if engage {
		header.Set("Content-Encoding", "gzip")
		header.Del("Content-Length")
		w.ResponseWriter.WriteHeader(status)

		w.gz = gzipPool.Get().(*gzip.Writer)
		w.gz.Reset(w.ResponseWriter)
		_, err := w.gz.Write(w.buf)
		w.buf = nil
		return err
	}

	w.ResponseWriter.WriteHeader(status)
	if len(w.buf) > 0 {
		_, err := w.ResponseWriter.Write(w.buf)
		w.buf = nil
		return err
	}
	return nil
}

// contentType returns the declared type, sniffing from the buffered
// plaintext when the handler did not set one. Sniffing cannot be left to
// net/http: once gzip engages it would see compressed bytes.
func (w *gzipResponseWriter) contentType() string {
	ct := w.Header().Get("Content-Type")
	if ct == "" && len(w.buf) > 0 {
		ct = http.DetectContentType(w.buf)
		w.Header().Set("Content-Type", ct)
	}
	return ct
}

// Flush forces the encoding decision; a streaming handler cannot wait
// for the threshold.
func (w *gzipResponseWriter) Flush() {
	if !w.decided {
		_ = w.decide()
	}
	if w.gz != nil {
		_ = w.gz.Flush()
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// finish completes the response after the handler returns, settling
// below-threshold responses and closing the gzip stream.
func (w *gzipResponseWriter) finish() error {
	if !w.decided {
		return w.decide()
	}
	if w.gz != nil {
		err := w.gz.Close()
		gzipPool.Put(w.gz)
		w.gz = nil
		return err
	}
	return nil
}

// acceptsGzip reports whether the client listed gzip in Accept-Encoding.
// A zero quality is an explicit refusal.
func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, q, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.TrimSpace(name) != "gzip" {
			continue
		}
		q = strings.TrimSpace(q)
		return q != "q=0" && q != "q=0.0"
	}
	return false
}

// Compression gzips responses once they prove big enough to be worth it.
// Below minCompressBytes the response goes out untouched, so health
// probes and small envelopes skip the gzip tax entirely. WebSocket
// upgrades pass through since the hijacked connection must stay a raw
// TCP stream, and HEAD responses have no body to compress.
func Compression(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsGzip(r) || r.Method == http.MethodHead || r.Header.Get("Upgrade") == "websocket" {
			next(w, r)
			return
		}

		// The response may differ by encoding even when it ends up
		// uncompressed, so caches need the Vary either way.
		w.Header().Add("Vary", "Accept-Encoding")

		gzw := &gzipResponseWriter{ResponseWriter: w}
		next(gzw, r)
		// The header block is already out if this fails; nothing to salvage.
		_ = gzw.finish()
	}
}
