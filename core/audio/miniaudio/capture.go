package miniaudio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-dialogue/core/audio"
)

// stallTimeout is how long a started capture device may go without
// delivering any audio before reads fail.
const stallTimeout = 2 * time.Second

var errCaptureStalled = errors.New("capture device stopped delivering audio")

type captureClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig

	frameBytes int
	buffer     []byte
	ready      chan struct{}

	mu    sync.Mutex
	bufMu sync.Mutex
}

func (c *captureClient) Init(audioContext *malgo.AllocatedContext, frameSize int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sampleRate := uint32(audio.DefaultSampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Capture)
	c.config.SampleRate = sampleRate
	c.config.Capture.Format = format
	c.config.Capture.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PerformanceProfile = malgo.LowLatency
	c.config.PeriodSizeInFrames = 480
	c.config.Periods = 3

	c.audioContext = audioContext
	c.frameBytes = frameSize * bytesPerFrame
	c.ready = make(chan struct{}, 1)

	var err error
	c.device, err = malgo.InitDevice(c.audioContext.Context, c.config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}
			c.bufMu.Lock()
			c.buffer = append(c.buffer, pInput[:n]...)
			c.bufMu.Unlock()

			select {
			case c.ready <- struct{}{}:
			default:
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	return nil
}

// ReadFrame starts the device if needed and waits for one full frame of
// captured audio.
func (c *captureClient) ReadFrame(ctx context.Context) ([]byte, error) {
	if err := c.Start(); err != nil {
		return nil, audio.NewDeviceError("start input", err)
	}

	stall := time.NewTimer(stallTimeout)
	defer stall.Stop()

	for {
		c.bufMu.Lock()
		if len(c.buffer) >= c.frameBytes {
			frame := make([]byte, c.frameBytes)
			copy(frame, c.buffer)
			c.buffer = c.buffer[c.frameBytes:]
			c.bufMu.Unlock()
			return frame, nil
		}
		c.bufMu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.ready:
			if !stall.Stop() {
				<-stall.C
			}
			stall.Reset(stallTimeout)
		case <-stall.C:
			return nil, audio.NewDeviceError("read", errCaptureStalled)
		}
	}
}

func (c *captureClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if c.device.IsStarted() {
		return nil
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	return nil
}

// Stop stops the device and drops any audio that was not read yet.
func (c *captureClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if !c.device.IsStarted() {
		return nil
	}

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop device: %w", err)
	}

	c.bufMu.Lock()
	c.buffer = nil
	c.bufMu.Unlock()
	return nil
}

func (c *captureClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}

	c.bufMu.Lock()
	c.buffer = nil
	c.bufMu.Unlock()
	return nil
}
