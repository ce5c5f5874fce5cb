package encoder

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNewRejectsInvalidSize(t *testing.T) {
	if _, err := New(0, 8, 30, "out.mp4", "libx264"); err == nil {
		t.Fatal("New accepted a zero width")
	}
	if _, err := New(8, -1, 30, "out.mp4", "libx264"); err == nil {
		t.Fatal("New accepted a negative height")
	}
}

func TestSendFrameUnblocksWhenFFmpegFails(t *testing.T) {
	// The output directory does not exist, so FFmpeg exits with an error
	// almost immediately. Producing frames must still terminate: every
	// SendFrame either queues or reports the failure.
	output := filepath.Join(t.TempDir(), "missing", "out.mp4")
	enc, err := New(8, 8, 30, output, "libx264")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	pixels := make([]byte, 8*8*4)
	sent := make(chan struct{})
	go func() {
		defer close(sent)
		for i := 0; i < 100; i++ {
			if err := enc.SendFrame(&Frame{Pixels: pixels, PTS: int64(i)}); err != nil {
				return
			}
		}
	}()

	select {
	case <-sent:
	case <-time.After(10 * time.Second):
		t.Fatal("producer stalled after encoder failure")
	}
	if err := enc.Close(); err == nil {
		t.Fatal("Close reported success for a failed encode")
	}
}
