// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package stream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/vision"
)

// FFmpegSource decodes a video file or RTSP/RTMP stream by running ffmpeg
// with an image2pipe MJPEG output and splitting the concatenated JPEGs off
// its stdout. ffmpeg must be on PATH or configured via
// SKYWARDEN_STREAM_FFMPEG_PATH; there is no in-process video decoding.
//
// The process runs under the context passed to Open, so cancelling that
// context kills ffmpeg and unblocks an in-flight Read.
type FFmpegSource struct {
	input  string
	name   string // input with URL credentials masked
	binary string
	live   bool

	cmd    *exec.Cmd
	stdout *bufio.Reader
	stderr cappedBuffer
	seq    uint64

	waited  bool
	waitErr error
	closed  bool
}

// NewFFmpegSource builds a source for a video file path or stream URL.
// Network stream schemes (rtsp, rtmp, udp, srt) are treated as live.
func NewFFmpegSource(input, binary string) *FFmpegSource {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegSource{
		input:  input,
		name:   config.MaskSource(input),
		binary: binary,
		live:   isStreamURL(input),
	}
}

func isStreamURL(input string) bool {
	for _, scheme := range []string{"rtsp://", "rtmp://", "udp://", "srt://"} {
		if strings.HasPrefix(input, scheme) {
			return true
		}
	}
	return false
}

// Name identifies the source in logs, status output, and frame tags.
// Credentials embedded in a stream URL are masked.
func (s *FFmpegSource) Name() string {
	return s.name
}

// Live reports whether the input is a network stream.
func (s *FFmpegSource) Live() bool {
	return s.live
}

// Open starts the ffmpeg process.
func (s *FFmpegSource) Open(ctx context.Context) error {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin"}
	if strings.HasPrefix(s.input, "rtsp://") {
		args = append(args, "-rtsp_transport", "tcp")
	}
	args = append(args,
		"-i", s.input,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "5",
		"pipe:1",
	)

	cmd := exec.CommandContext(ctx, s.binary, args...)
	cmd.Stderr = &s.stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: ffmpeg stdout pipe: %v", vision.ErrStreamRead, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: starting %s: %v", vision.ErrConfiguration, s.binary, err)
	}

	s.cmd = cmd
	s.stdout = bufio.NewReaderSize(stdout, 1<<20)
	s.seq = 0
	s.waited = false
	s.closed = false
	return nil
}

// Read returns the next decoded frame. A clean ffmpeg exit is end of
// stream; a non-zero exit surfaces the stderr tail in the error.
func (s *FFmpegSource) Read(ctx context.Context) (vision.Frame, error) {
	if err := ctx.Err(); err != nil {
		return vision.Frame{}, err
	}
	if s.stdout == nil {
		return vision.Frame{}, fmt.Errorf("%w: source not open", vision.ErrStreamRead)
	}

	data, err := readJPEGFrame(s.stdout)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return vision.Frame{}, ctxErr
		}
		if err == io.EOF {
			if waitErr := s.wait(); waitErr != nil {
				// ffmpeg echoes the input URL in its error output, so
				// scrub credentials from the stderr tail too.
				tail := strings.ReplaceAll(s.stderr.String(), s.input, s.name)
				return vision.Frame{}, fmt.Errorf("%w: ffmpeg exited: %v: %s",
					vision.ErrStreamRead, waitErr, tail)
			}
			return vision.Frame{}, vision.ErrStreamEnd
		}
		return vision.Frame{}, fmt.Errorf("%w: %v", vision.ErrStreamRead, err)
	}

	frame := vision.NewFrame(s.seq, data, vision.FormatJPEG, s.name)
	s.seq++
	return frame, nil
}

// Close kills the process if it is still running and reaps it.
func (s *FFmpegSource) Close() error {
	if s.closed || s.cmd == nil {
		return nil
	}
	s.closed = true
	if s.cmd.Process != nil && !s.waited {
		_ = s.cmd.Process.Kill()
	}
	_ = s.wait()
	return nil
}

func (s *FFmpegSource) wait() error {
	if s.waited {
		return s.waitErr
	}
	s.waited = true
	s.waitErr = s.cmd.Wait()
	return s.waitErr
}

// readJPEGFrame scans to the next JPEG start marker and reads through the
// end marker. Marker segments before the scan are skipped by their declared
// length: APPn and COM payloads are not byte-stuffed, so a raw FFD9 can
// legitimately appear inside them (an EXIF thumbnail carries its own EOI).
// Only within entropy-coded scan data does FFD9 terminate the frame.
func readJPEGFrame(r *bufio.Reader) ([]byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b != 0xFF {
			continue
		}
		next, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if next == 0xD8 {
			break
		}
		if next == 0xFF {
			if err := r.UnreadByte(); err != nil {
				return nil, err
			}
		}
	}

	buf := make([]byte, 0, 64<<10)
	buf = append(buf, 0xFF, 0xD8)
	inScan := false
	for {
		marker, err := nextJPEGMarker(r, &buf, inScan)
		if err != nil {
			return nil, err
		}
		switch {
		case marker == 0xD9: // EOI
			return buf, nil
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			// TEM and RSTn carry no payload.
		case marker == 0xDA: // SOS header, then entropy-coded data
			if err := copyJPEGSegment(r, &buf); err != nil {
				return nil, err
			}
			inScan = true
		default:
			if err := copyJPEGSegment(r, &buf); err != nil {
				return nil, err
			}
		}
	}
}

// nextJPEGMarker reads through the next marker, appending every consumed
// byte to buf, and returns the marker code. Outside a scan only fill bytes
// may precede a marker; inside one it skips entropy-coded data and stuffed
// FF00 pairs.
func nextJPEGMarker(r *bufio.Reader, buf *[]byte, inScan bool) (byte, error) {
	for {
		if len(*buf) > maxFrameBytes {
			return 0, fmt.Errorf("frame exceeds %d bytes", maxFrameBytes)
		}
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		*buf = append(*buf, b)
		if b != 0xFF {
			if !inScan {
				return 0, fmt.Errorf("jpeg: expected marker, got 0x%02X", b)
			}
			continue
		}
		next, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		switch next {
		case 0x00: // stuffed 0xFF data byte
			if !inScan {
				return 0, fmt.Errorf("jpeg: stuffed byte outside scan")
			}
			*buf = append(*buf, next)
		case 0xFF: // fill byte, next read sees the 0xFF again
			if err := r.UnreadByte(); err != nil {
				return 0, err
			}
		default:
			*buf = append(*buf, next)
			return next, nil
		}
	}
}

// copyJPEGSegment copies one length-prefixed marker segment into buf. The
// two length bytes count themselves, so the payload is length-2.
func copyJPEGSegment(r *bufio.Reader, buf *[]byte) error {
	var lenBytes [2]byte
	if _, err := io.ReadFull(r, lenBytes[:]); err != nil {
		return err
	}
	n := int(lenBytes[0])<<8 | int(lenBytes[1])
	if n < 2 {
		return fmt.Errorf("jpeg: segment length %d", n)
	}
	*buf = append(*buf, lenBytes[:]...)
	if len(*buf)+n-2 > maxFrameBytes {
		return fmt.Errorf("frame exceeds %d bytes", maxFrameBytes)
	}
	payload := make([]byte, n-2)
	if _, err := io.ReadFull(r, payload); err != nil {
		return err
	}
	*buf = append(*buf, payload...)
	return nil
}

// cappedBuffer retains the first max bytes written and discards the rest.
// Used to keep an ffmpeg stderr excerpt for error reporting without
// letting a chatty process grow memory.
type cappedBuffer struct {
	mu  sync.Mutex
	buf []byte
}

const cappedBufferMax = 4 << 10

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(p)
	if remaining := cappedBufferMax - len(b.buf); remaining > 0 {
		if n > remaining {
			p = p[:remaining]
		}
		b.buf = append(b.buf, p...)
	}
	return n, nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(string(b.buf))
}
