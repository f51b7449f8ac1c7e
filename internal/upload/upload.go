// Package upload is the file intake boundary: media type gating, spooling
// of received bytes and release of owned temp files.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotVideo is returned for files whose media type is not video/*
var ErrNotVideo = errors.New("file is not a video")

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".flv":  "video/x-flv",
}

// IsVideo reports whether the declared media type starts with video/
func IsVideo(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "video/")
}

// MediaTypeFor guesses the media type of a file name from its extension
func MediaTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := videoTypes[ext]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}

// Upload is one received file. Uploads spooled by FromReader are owned and
// their bytes are deleted on Release.
type Upload struct {
	Name      string
	Size      int64
	MediaType string
	Path      string

	owned   bool
	release sync.Once
}

// FromPath references an existing file without taking ownership
func FromPath(path string) (*Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat upload: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("upload %s is a directory", path)
	}

	return &Upload{
		Name:      filepath.Base(path),
		Size:      info.Size(),
		MediaType: MediaTypeFor(path),
		Path:      path,
	}, nil
}

// FromReader spools r into tempDir. An empty or generic declared media type
// is replaced with the one guessed from name. Non-video files are rejected
// before anything is written.
func FromReader(r io.Reader, name, mediaType, tempDir string) (*Upload, error) {
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = MediaTypeFor(name)
	}
	if !IsVideo(mediaType) {
		return nil, fmt.Errorf("%s (%s): %w", name, mediaType, ErrNotVideo)
	}

	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	f, err := os.CreateTemp(tempDir, "upload-*"+strings.ToLower(filepath.Ext(name)))
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("spool upload: %w", err)
	}

	return &Upload{
		Name:      filepath.Base(name),
		Size:      n,
		MediaType: mediaType,
		Path:      f.Name(),
		owned:     true,
	}, nil
}

// Owned reports whether Release will delete the file
func (u *Upload) Owned() bool {
	return u.owned
}

// SizeMB renders the size in mebibytes with two decimals
func (u *Upload) SizeMB() string {
	return fmt.Sprintf("%.2f MB", float64(u.Size)/(1024*1024))
}

// Release deletes owned bytes. Safe to call more than once and on nil.
func (u *Upload) Release() error {
	if u == nil || !u.owned {
		return nil
	}

	var err error
	u.release.Do(func() {
		if rmErr := os.Remove(u.Path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = fmt.Errorf("release upload %s: %w", u.Path, rmErr)
		}
	})
	return err
}
