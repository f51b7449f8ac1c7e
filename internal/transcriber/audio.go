package transcriber

import (
	"context"
	"fmt"
	"os"
)

// extractAudio converts the video to 16kHz mono WAV in the temp dir.
// The caller owns the returned file.
func (t *implTranscriber) extractAudio(ctx context.Context, videoPath string) (string, error) {
	if err := os.MkdirAll(t.tempDir, 0755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	f, err := os.CreateTemp(t.tempDir, "audio-*.wav")
	if err != nil {
		return "", fmt.Errorf("reserve audio file: %w", err)
	}
	audioPath := f.Name()
	f.Close()

	t.logger.Info(ctx, "Extracting audio: %s", videoPath)

	// -vn: no video, -ar 16000 / -ac 1: 16kHz mono, -y: overwrite the reserved file
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-i", videoPath,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		audioPath,
	}

	if _, err := t.executor.Execute(ctx, t.cfg.FFmpegPath, args...); err != nil {
		os.Remove(audioPath)
		return "", fmt.Errorf("ffmpeg extract audio: %w", err)
	}

	t.logger.Info(ctx, "Audio extracted successfully: %s", audioPath)
	return audioPath, nil
}
