package extract

import (
	"context"
	"testing"
	"time"
)

func TestProbe(t *testing.T) {
	runner := &fakeRunner{}
	runner.handler = func(name string, args []string) ([]byte, error) {
		return []byte(`{
			"format": {"duration": "35.480000"},
			"streams": [
				{"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080},
				{"codec_type": "audio", "codec_name": "aac"}
			]
		}`), nil
	}

	info, err := NewProber(testConfig(), runner).Probe(context.Background(), "/tmp/in.mp4")
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
	if got, want := info.Duration.Round(time.Millisecond), 35480*time.Millisecond; got != want {
		t.Errorf("duration = %v, want %v", got, want)
	}
	if info.Width != 1920 || info.Height != 1080 {
		t.Errorf("dimensions = %dx%d, want 1920x1080", info.Width, info.Height)
	}
	if info.Codec != "h264" {
		t.Errorf("codec = %q, want h264", info.Codec)
	}
}

func TestProbe_StreamLevelDuration(t *testing.T) {
	runner := &fakeRunner{}
	runner.handler = func(name string, args []string) ([]byte, error) {
		return []byte(`{
			"format": {},
			"streams": [{"codec_type": "video", "codec_name": "vp9", "duration": "12.5"}]
		}`), nil
	}

	info, err := NewProber(testConfig(), runner).Probe(context.Background(), "/tmp/in.webm")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := info.Duration, 12500*time.Millisecond; got != want {
		t.Errorf("duration = %v, want %v", got, want)
	}
}

func TestProbe_BadOutput(t *testing.T) {
	runner := &fakeRunner{}
	runner.handler = func(name string, args []string) ([]byte, error) {
		return []byte("not json"), nil
	}

	if _, err := NewProber(testConfig(), runner).Probe(context.Background(), "/tmp/in.mp4"); err == nil {
		t.Fatal("Probe succeeded on malformed output, want error")
	}
}
