package portaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-dialogue/core/audio"
)

// Client owns one input stream for capture and one output stream for
// playback. The two streams are never shared: capture is only read through
// ReadFrame and playback only written through Play.
type Client struct {
	frameSize    int
	playbackRate int

	input     *portaudio.Stream
	in        []int16
	capturing bool
	captureMu sync.Mutex

	output     *portaudio.Stream
	out        []int16
	playbackMu sync.Mutex

	closeOnce sync.Once
}

// NewClient initializes PortAudio and opens the default input device at
// 16 kHz mono reading frameSize samples at a time, and the default output
// device at playbackRate.
func NewClient(frameSize, playbackRate int) (*Client, error) {
	if frameSize <= 0 {
		frameSize = audio.DefaultFrameSize
	}
	if playbackRate <= 0 {
		playbackRate = audio.DefaultSampleRate
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, audio.NewDeviceError("initialize", err)
	}

	c := &Client{
		frameSize:    frameSize,
		playbackRate: playbackRate,
		in:           make([]int16, frameSize),
		out:          make([]int16, frameSize),
	}

	var err error
	if c.input, err = portaudio.OpenDefaultStream(1, 0, audio.DefaultSampleRate, frameSize, c.in); err != nil {
		_ = portaudio.Terminate()
		return nil, audio.NewDeviceError("open input", err)
	}
	if c.output, err = portaudio.OpenDefaultStream(0, 1, float64(playbackRate), frameSize, c.out); err != nil {
		_ = c.input.Close()
		_ = portaudio.Terminate()
		return nil, audio.NewDeviceError("open output", err)
	}

	return c, nil
}

// ReadFrame blocks until the next frame of captured audio is available and
// returns it as linear16 PCM. The capture stream is started on first use.
// Input overflows are tolerated: the device keeps running and the frame is
// returned as read.
func (c *Client) ReadFrame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.captureMu.Lock()
	defer c.captureMu.Unlock()

	if !c.capturing {
		if err := c.input.Start(); err != nil {
			return nil, audio.NewDeviceError("start input", err)
		}
		c.capturing = true
	}

	if err := c.input.Read(); err != nil && err != portaudio.InputOverflowed {
		return nil, audio.NewDeviceError("read", err)
	}

	return audio.Int16ToBytes(c.in), nil
}

// PauseCapture stops the input stream so audio recorded while the assistant
// thinks or speaks is never delivered.
func (c *Client) PauseCapture() error {
	c.captureMu.Lock()
	defer c.captureMu.Unlock()

	if !c.capturing {
		return nil
	}
	if err := c.input.Stop(); err != nil {
		return audio.NewDeviceError("stop input", err)
	}
	c.capturing = false
	return nil
}

// ResumeCapture restarts the input stream after [Client.PauseCapture].
func (c *Client) ResumeCapture() error {
	c.captureMu.Lock()
	defer c.captureMu.Unlock()

	if c.capturing {
		return nil
	}
	if err := c.input.Start(); err != nil {
		return audio.NewDeviceError("start input", err)
	}
	c.capturing = true
	return nil
}

func (c *Client) PlaybackEncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: c.playbackRate,
		Format:     audio.EncodingLinear16,
	}
}

// Play writes linear16 PCM to the output device and returns once it has been
// played out. Cancelling ctx aborts playback without draining.
func (c *Client) Play(ctx context.Context, pcm []byte) error {
	c.playbackMu.Lock()
	defer c.playbackMu.Unlock()

	if err := c.output.Start(); err != nil {
		return audio.NewDeviceError("start output", err)
	}

	chunkBytes := c.frameSize * 2
	for offset := 0; offset < len(pcm); offset += chunkBytes {
		if err := ctx.Err(); err != nil {
			_ = c.output.Abort()
			return err
		}

		end := min(offset+chunkBytes, len(pcm))
		n := audio.BytesToInt16(c.out, pcm[offset:end])
		clear(c.out[n:])

		if err := c.output.Write(); err != nil && err != portaudio.OutputUnderflowed {
			_ = c.output.Abort()
			return audio.NewDeviceError("write", err)
		}
	}

	// Stop waits for all pending buffers to be played.
	if err := c.output.Stop(); err != nil {
		return audio.NewDeviceError("drain output", err)
	}
	return nil
}

// Close releases both streams and terminates PortAudio. It is safe to call
// more than once.
func (c *Client) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		c.captureMu.Lock()
		if c.capturing {
			_ = c.input.Stop()
			c.capturing = false
		}
		if err := c.input.Close(); err != nil {
			closeErr = fmt.Errorf("failed to close input stream: %w", err)
		}
		c.captureMu.Unlock()

		c.playbackMu.Lock()
		if err := c.output.Close(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("failed to close output stream: %w", err)
		}
		c.playbackMu.Unlock()

		if err := portaudio.Terminate(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("failed to terminate portaudio: %w", err)
		}
	})
	return closeErr
}
