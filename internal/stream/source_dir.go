// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package stream

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tomtom215/skywarden/internal/vision"
)

// DirSource replays the image files of a directory as a frame sequence,
// in lexical filename order. Useful for extracted frame dumps and for
// replaying recorded incidents through the pipeline.
type DirSource struct {
	dir   string
	files []string
	next  int
}

// NewDirSource builds a source over dir. The directory is listed at Open,
// not construction; files added afterwards are not picked up.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Name identifies the source in logs and status output.
func (s *DirSource) Name() string {
	return "dir:" + s.dir
}

// Open lists the supported image files (jpg, jpeg, png, bmp) in the
// directory. A directory with no supported images is an error.
func (s *DirSource) Open(_ context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("%w: listing %s: %v", vision.ErrStreamRead, s.dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if vision.FormatForPath(entry.Name()) == "" {
			continue
		}
		files = append(files, filepath.Join(s.dir, entry.Name()))
	}
	sort.Strings(files)

	if len(files) == 0 {
		return fmt.Errorf("%w: no image files in %s", vision.ErrStreamRead, s.dir)
	}
	s.files = files
	s.next = 0
	return nil
}

// Read returns the next image as a frame. Sequence numbers are the file's
// position in the sorted listing.
func (s *DirSource) Read(ctx context.Context) (vision.Frame, error) {
	if err := ctx.Err(); err != nil {
		return vision.Frame{}, err
	}
	if s.next >= len(s.files) {
		return vision.Frame{}, vision.ErrStreamEnd
	}

	path := s.files[s.next]
	data, err := os.ReadFile(path)
	if err != nil {
		return vision.Frame{}, fmt.Errorf("%w: %s: %v", vision.ErrStreamRead, path, err)
	}

	frame := vision.NewFrame(uint64(s.next), data, vision.FormatForPath(path), s.Name())
	s.next++
	return frame, nil
}

// Close releases nothing; directory listings hold no resources.
func (s *DirSource) Close() error {
	return nil
}
