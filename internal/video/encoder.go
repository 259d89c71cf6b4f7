// Package video drives ffmpeg as a streaming H.264 encoder: raw RGBA frames
// are written to its stdin one at a time, so memory stays bounded for long
// high-resolution sequences.
package video

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strings"
)

// EncoderError wraps an ffmpeg failure together with its captured output.
type EncoderError struct {
	Output string
	Err    error
}

func (e *EncoderError) Error() string {
	return fmt.Sprintf("video: ffmpeg: %v: %s", e.Err, e.Output)
}

func (e *EncoderError) Unwrap() error { return e.Err }

// FFmpegSink encodes a raw RGBA frame stream into an mp4 file. It implements
// kenburns.FrameSink. Close must be called to finalize the container; until
// then the output file is incomplete.
type FFmpegSink struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	output bytes.Buffer
	closed bool
}

// StartFFmpeg launches the encoder process for a width x height stream at
// the given frame rate, writing to outPath. The encoder name comes from
// BestH264Encoder; quality is interpreted per encoder (CRF for libx264,
// bitrate for VideoToolbox, CQ for NVENC).
func StartFFmpeg(outPath string, width, height, fps int, encoderName string, quality int) (*FFmpegSink, error) {
	args := buildArgs(outPath, width, height, fps, encoderName, quality)

	s := &FFmpegSink{cmd: exec.Command("ffmpeg", args...)}
	s.cmd.Stdout = &s.output
	s.cmd.Stderr = &s.output

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return nil, &EncoderError{Err: err}
	}
	s.stdin = stdin

	if err := s.cmd.Start(); err != nil {
		return nil, &EncoderError{Err: err}
	}
	return s, nil
}

func buildArgs(outPath string, width, height, fps int, encoderName string, quality int) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", encoderName,
	}

	switch encoderName {
	case "h264_videotoolbox":
		// VideoToolbox does not honor -q:v on all versions, use bitrate.
		args = append(args, "-b:v", fmt.Sprintf("%dk", quality*100))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", quality), "-preset", "medium")
	}

	return append(args, outPath)
}

// WriteFrame streams one frame to the encoder in output pixel order.
func (s *FFmpegSink) WriteFrame(img *image.RGBA) error {
	if err := writeRawRGBA(s.stdin, img); err != nil {
		return &EncoderError{Output: s.output.String(), Err: err}
	}
	return nil
}

// writeRawRGBA writes the pixel buffer as tightly packed RGBA, copying only
// when the stride or origin differs from the packed layout.
func writeRawRGBA(w io.Writer, img *image.RGBA) error {
	bounds := img.Bounds()
	if img.Stride != bounds.Dx()*4 || bounds.Min.X != 0 || bounds.Min.Y != 0 {
		packed := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(packed, packed.Bounds(), img, bounds.Min, draw.Src)
		img = packed
	}
	_, err := w.Write(img.Pix)
	return err
}

// Close finishes the stream and waits for ffmpeg to finalize the file.
func (s *FFmpegSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.stdin.Close(); err != nil {
		s.cmd.Wait()
		return &EncoderError{Output: s.output.String(), Err: err}
	}
	if err := s.cmd.Wait(); err != nil {
		return &EncoderError{Output: s.output.String(), Err: err}
	}
	return nil
}

// Abort kills the encoder without finalizing the output. Used on error paths
// where the partial file is discarded anyway.
func (s *FFmpegSink) Abort() {
	if s.closed {
		return
	}
	s.closed = true
	s.stdin.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd.Wait()
}

// BestH264Encoder probes ffmpeg for hardware H.264 encoders, preferring
// VideoToolbox then NVENC, and falls back to software x264.
func BestH264Encoder() string {
	out, err := exec.Command("ffmpeg", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), name) {
			return name
		}
	}
	return "libx264"
}

// DefaultQuality picks a sensible quality value for the encoder when none is
// configured.
func DefaultQuality(encoderName string) int {
	switch encoderName {
	case "h264_videotoolbox":
		return 75 // -> 7.5 Mbit/s
	case "h264_nvenc":
		return 28
	default:
		return 23 // x264 CRF
	}
}
