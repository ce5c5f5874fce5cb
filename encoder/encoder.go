// Package encoder writes rendered frames to a video file by piping raw RGBA
// data into FFmpeg.
package encoder

import (
	"fmt"
	"io"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Frame is one rendered video frame ready for encoding.
type Frame struct {
	Pixels []byte
	PTS    int64
}

// Encoder runs FFmpeg as the consumer of a frame channel. The render loop
// is the producer; SendFrame blocks when FFmpeg falls behind, which
// naturally paces offline rendering. Once encoding fails, SendFrame stops
// blocking and reports the error so the producer can bail out.
type Encoder struct {
	width  int
	height int

	frames     chan *Frame
	done       chan error
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter

	failOnce sync.Once
	failed   chan struct{}
	failure  error
}

// New starts FFmpeg reading raw RGBA frames of the given size from a pipe
// and encoding them into output. GL readback is bottom-up, hence the vflip.
func New(width, height, fps int, output, codec string) (*Encoder, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	pipeReader, pipeWriter := io.Pipe()

	inputArgs := ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", width, height),
		"framerate": fps,
	}
	outputArgs := ffmpeg.KwArgs{
		"c:v":     codec,
		"pix_fmt": "yuv420p",
		"vf":      "vflip",
		"b:v":     "25M",
	}

	cmd := ffmpeg.Input("pipe:", inputArgs).
		Output(output, outputArgs).
		OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()

	e := &Encoder{
		width:      width,
		height:     height,
		frames:     make(chan *Frame, 5),
		done:       make(chan error, 1),
		pipeReader: pipeReader,
		pipeWriter: pipeWriter,
		failed:     make(chan struct{}),
	}
	go e.run(cmd)
	return e, nil
}

// fail records the first encoding error and unblocks any pending SendFrame.
func (e *Encoder) fail(err error) {
	e.failOnce.Do(func() {
		e.failure = err
		close(e.failed)
	})
}

func (e *Encoder) err() error {
	select {
	case <-e.failed:
		return e.failure
	default:
		return nil
	}
}

func (e *Encoder) run(cmd *ffmpeg.Stream) {
	errc := make(chan error, 1)
	go func() {
		err := cmd.Run()
		if err != nil {
			// FFmpeg died; release any Write stuck on the pipe.
			e.pipeReader.CloseWithError(err)
			e.fail(fmt.Errorf("ffmpeg: %w", err))
		}
		errc <- err
	}()

	for frame := range e.frames {
		if e.err() != nil {
			// Keep draining so producers never block on a dead encoder.
			continue
		}
		if len(frame.Pixels) != e.width*e.height*4 {
			err := fmt.Errorf("frame %d has %d bytes, want %d", frame.PTS, len(frame.Pixels), e.width*e.height*4)
			e.pipeWriter.CloseWithError(err)
			e.fail(err)
			continue
		}
		if _, err := e.pipeWriter.Write(frame.Pixels); err != nil {
			e.fail(fmt.Errorf("writing frame %d: %w", frame.PTS, err))
			continue
		}
	}

	e.pipeWriter.Close()
	ffErr := <-errc
	if err := e.err(); err != nil {
		e.done <- err
		return
	}
	e.done <- ffErr
}

// SendFrame queues a frame for encoding. It returns the encoding error once
// FFmpeg has failed, so the render loop can stop producing.
func (e *Encoder) SendFrame(frame *Frame) error {
	select {
	case e.frames <- frame:
		return nil
	case <-e.failed:
		return e.failure
	}
}

// Close signals end of stream and waits for FFmpeg to finish the file.
func (e *Encoder) Close() error {
	close(e.frames)
	return <-e.done
}
