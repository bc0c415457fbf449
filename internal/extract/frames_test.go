package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"loomproc/internal/config"
)

type recordedCall struct {
	name string
	args []string
}

// fakeRunner simulates ffmpeg/ffprobe invocations.
type fakeRunner struct {
	calls   []recordedCall
	handler func(name string, args []string) ([]byte, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, recordedCall{name: name, args: args})
	return f.handler(name, args)
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	return "/usr/bin/" + name, nil
}

func testConfig() *config.Config {
	return &config.Config{FfmpegPath: "ffmpeg", FfprobePath: "ffprobe"}
}

func TestExtractFrames(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "frames")
	runner := &fakeRunner{}
	runner.handler = func(name string, args []string) ([]byte, error) {
		pattern := args[len(args)-1]
		for i := 1; i <= 4; i++ {
			if err := os.WriteFile(fmt.Sprintf(pattern, i), []byte("jpeg"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		return nil, nil
	}

	frames, err := NewFrameExtractor(testConfig(), runner).ExtractFrames(context.Background(), "/tmp/in.mp4", outDir, 10)
	if err != nil {
		t.Fatalf("ExtractFrames returned error: %v", err)
	}
	if len(frames) != 4 {
		t.Fatalf("got %d frames, want 4", len(frames))
	}

	// Numbering is 1-based and zero-padded so lexicographic order is capture order.
	for i, frame := range frames {
		want := fmt.Sprintf("frame_%04d.jpg", i+1)
		if filepath.Base(frame) != want {
			t.Errorf("frame[%d] = %q, want %q", i, filepath.Base(frame), want)
		}
	}

	args := runner.calls[0].args
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "fps=1/10") {
		t.Errorf("ffmpeg args missing sampling filter: %v", args)
	}
}

func TestExtractFrames_ClampsInterval(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "frames")
	runner := &fakeRunner{}
	runner.handler = func(name string, args []string) ([]byte, error) {
		if err := os.WriteFile(fmt.Sprintf(args[len(args)-1], 1), []byte("jpeg"), 0o644); err != nil {
			t.Fatal(err)
		}
		return nil, nil
	}

	if _, err := NewFrameExtractor(testConfig(), runner).ExtractFrames(context.Background(), "/tmp/in.mp4", outDir, 0); err != nil {
		t.Fatalf("ExtractFrames returned error: %v", err)
	}
	if joined := strings.Join(runner.calls[0].args, " "); !strings.Contains(joined, "fps=1/1") {
		t.Errorf("interval not clamped to minimum: %v", runner.calls[0].args)
	}
}

func TestExtractFrames_ToolFailure(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "frames")
	runner := &fakeRunner{}
	runner.handler = func(name string, args []string) ([]byte, error) {
		return []byte("in.mp4: Invalid data found when processing input"), errors.New("exit status 1")
	}

	_, err := NewFrameExtractor(testConfig(), runner).ExtractFrames(context.Background(), "/tmp/in.mp4", outDir, 10)
	if err == nil {
		t.Fatal("ExtractFrames succeeded, want error")
	}
	var frameErr *FrameExtractionError
	if !errors.As(err, &frameErr) {
		t.Fatalf("error = %T, want *FrameExtractionError", err)
	}
	if !strings.Contains(frameErr.Output, "Invalid data") {
		t.Errorf("tool diagnostics not preserved: %q", frameErr.Output)
	}
}

func TestExtractFrames_NoFramesProduced(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "frames")
	runner := &fakeRunner{}
	runner.handler = func(name string, args []string) ([]byte, error) {
		return nil, nil // clean exit, empty directory
	}

	_, err := NewFrameExtractor(testConfig(), runner).ExtractFrames(context.Background(), "/tmp/in.mp4", outDir, 10)
	var frameErr *FrameExtractionError
	if !errors.As(err, &frameErr) {
		t.Fatalf("error = %T, want *FrameExtractionError", err)
	}
}

func TestCollectFramePaths_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"frame_0002.jpg", "frame_0001.jpg", "notes.txt", "frame_0001.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	paths, err := collectFramePaths(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Fatalf("got %d paths, want 2", len(paths))
	}
	if filepath.Base(paths[0]) != "frame_0001.jpg" || filepath.Base(paths[1]) != "frame_0002.jpg" {
		t.Errorf("paths not sorted: %v", paths)
	}
}
