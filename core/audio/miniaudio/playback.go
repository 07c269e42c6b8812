package miniaudio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

type playbackClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig
	sampleRate   int

	pendingAudio []byte
	marks        []playbackMark

	mu      sync.Mutex
	audioMu sync.Mutex
}

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext, sampleRate int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.sampleRate = sampleRate
	c.config = malgo.DefaultDeviceConfig(malgo.Playback)
	c.config.SampleRate = uint32(sampleRate)
	c.config.Playback.Format = format
	c.config.Playback.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PeriodSizeInFrames = uint32(sampleRate / 10) // ~100ms of audio
	c.config.Periods = 4

	c.audioContext = audioContext

	var err error
	if c.device, err = malgo.InitDevice(
		c.audioContext.Context,
		c.config,
		malgo.DeviceCallbacks{Data: c.processAudio(bytesPerFrame)},
	); err != nil {
		return err
	}

	return nil
}

func (c *playbackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	return nil
}

func (c *playbackClient) SendAudio(audio []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if !c.device.IsStarted() {
		return fmt.Errorf("device not started")
	}

	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.pendingAudio = append(c.pendingAudio, audio...)
	return nil
}

// ClearBuffer drops queued audio and releases everyone waiting on a mark.
func (c *playbackClient) ClearBuffer() {
	c.audioMu.Lock()
	marks := c.marks
	c.pendingAudio = nil
	c.marks = nil
	c.audioMu.Unlock()

	for _, mark := range marks {
		close(mark.done)
	}
}

// AwaitMark blocks until everything queued before the call has been handed
// to the device, or ctx is done.
func (c *playbackClient) AwaitMark(ctx context.Context) error {
	c.audioMu.Lock()
	mark := playbackMark{position: len(c.pendingAudio), done: make(chan struct{})}
	if mark.position == 0 {
		c.audioMu.Unlock()
		return nil
	}
	c.marks = append(c.marks, mark)
	c.audioMu.Unlock()

	select {
	case <-mark.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	c.device.Uninit()
	c.device = nil

	c.ClearBuffer()
	return nil
}

// latency is how long audio handed to the device takes to come out of it.
func (c *playbackClient) latency() time.Duration {
	if c.sampleRate <= 0 {
		return 0
	}
	frames := int(c.config.PeriodSizeInFrames) * int(c.config.Periods)
	return time.Duration(frames) * time.Second / time.Duration(c.sampleRate)
}

type playbackMark struct {
	position int
	done     chan struct{}
}

func (c *playbackClient) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame

		c.audioMu.Lock()
		n := copy(pOutput[:min(need, len(pOutput))], c.pendingAudio)
		clear(pOutput[n:])
		c.pendingAudio = c.pendingAudio[n:]
		passed := c.advanceMarks(n)
		c.audioMu.Unlock()

		for _, mark := range passed {
			close(mark.done)
		}
	}
}

// advanceMarks moves every mark back by consumed bytes and returns the ones
// that have been reached. Must be called with audioMu held.
func (c *playbackClient) advanceMarks(consumed int) []playbackMark {
	passed := 0
	for i := range c.marks {
		c.marks[i].position -= consumed
		if c.marks[i].position <= 0 {
			passed++
		}
	}
	if passed == 0 {
		return nil
	}

	reached := c.marks[:passed]
	c.marks = c.marks[passed:]
	return reached
}
