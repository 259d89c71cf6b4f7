// Package storage owns the canonical on-disk asset locations. Both assets
// live at fixed well-known paths and are only ever replaced atomically, so a
// concurrent reader never observes a partially written file.
package storage

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/frameloop/frameloop/internal/frame"
)

const (
	imageName  = "current.png"
	videoName  = "current.mp4"
	cameraName = "current_path.yaml"
)

// Store holds the data directory layout: <dir>/images and <dir>/videos.
type Store struct {
	imagesDir string
	videosDir string
}

// New creates the directory layout under dir.
func New(dir string) (*Store, error) {
	s := &Store{
		imagesDir: filepath.Join(dir, "images"),
		videosDir: filepath.Join(dir, "videos"),
	}
	for _, d := range []string{s.imagesDir, s.videosDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("storage: create %s: %w", d, err)
		}
	}
	return s, nil
}

// ImagesDir returns the directory served under /images/.
func (s *Store) ImagesDir() string { return s.imagesDir }

// VideosDir returns the directory served under /videos/.
func (s *Store) VideosDir() string { return s.videosDir }

// ImagePath returns the canonical still-image location.
func (s *Store) ImagePath() string { return filepath.Join(s.imagesDir, imageName) }

// VideoPath returns the canonical video location.
func (s *Store) VideoPath() string { return filepath.Join(s.videosDir, videoName) }

// CameraPathFile returns where the video's camera path is persisted.
func (s *Store) CameraPathFile() string { return filepath.Join(s.videosDir, cameraName) }

// ImageURL and VideoURL are the reference paths handed to display clients.
func (s *Store) ImageURL() string { return "/images/" + imageName }
func (s *Store) VideoURL() string { return "/videos/" + videoName }

// SaveImage encodes img as PNG into a temporary file in the same directory
// and renames it over the canonical path. Rename is atomic on POSIX
// filesystems, so readers see either the old or the new image, never a
// partial write.
func (s *Store) SaveImage(img image.Image) error {
	tmp, err := os.CreateTemp(s.imagesDir, ".current_*.png")
	if err != nil {
		return fmt.Errorf("storage: stage image: %w", err)
	}
	tmpName := tmp.Name()

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("storage: encode image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: close staged image: %w", err)
	}

	if err := os.Rename(tmpName, s.ImagePath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: replace image: %w", err)
	}
	return nil
}

// LoadImage reads and decodes the canonical image as a packed RGBA frame.
func (s *Store) LoadImage() (*image.RGBA, error) {
	data, err := os.ReadFile(s.ImagePath())
	if err != nil {
		return nil, fmt.Errorf("storage: read image: %w", err)
	}
	img, err := frame.Decode(data)
	if err != nil {
		return nil, err
	}
	return frame.ToRGBA(img), nil
}

// HasImage reports whether a canonical image exists on disk.
func (s *Store) HasImage() bool {
	_, err := os.Stat(s.ImagePath())
	return err == nil
}

// StageVideoPath returns a temporary location in the videos directory for
// the encoder to write into; PromoteVideo later renames it into place. The
// staged file lives on the same filesystem as the canonical path so the
// rename stays atomic.
func (s *Store) StageVideoPath() string {
	return filepath.Join(s.videosDir, ".staging.mp4")
}

// PromoteVideo atomically replaces the canonical video with the staged file.
func (s *Store) PromoteVideo(staged string) error {
	if err := os.Rename(staged, s.VideoPath()); err != nil {
		return fmt.Errorf("storage: replace video: %w", err)
	}
	return nil
}

// DiscardVideo removes a staged video after a failed synthesis.
func (s *Store) DiscardVideo(staged string) {
	os.Remove(staged)
}
