package miniaudio

import (
	"context"
	"fmt"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-dialogue/core/audio"
)

type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	playbackClient
	captureClient
}

// NewClient opens the default capture device at 16 kHz mono, delivering
// frames of frameSize samples, and the default playback device at
// playbackRate.
func NewClient(frameSize, playbackRate int) (*Client, error) {
	if frameSize <= 0 {
		frameSize = audio.DefaultFrameSize
	}
	if playbackRate <= 0 {
		playbackRate = audio.DefaultSampleRate
	}

	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) { logger.Debug("malgo", "message", message) },
	)
	if err != nil {
		return nil, audio.NewDeviceError("initialize", err)
	}

	client := Client{
		audioContext: audioCtx,
	}

	if err := client.playbackClient.Init(audioCtx, playbackRate); err != nil {
		client.Close()
		return nil, audio.NewDeviceError("open output", err)
	}

	if err := client.playbackClient.Start(); err != nil {
		client.Close()
		return nil, audio.NewDeviceError("start output", err)
	}

	if err := client.captureClient.Init(audioCtx, frameSize); err != nil {
		client.Close()
		return nil, audio.NewDeviceError("open input", err)
	}

	return &client, nil
}

func (c *Client) ReadFrame(ctx context.Context) ([]byte, error) {
	return c.captureClient.ReadFrame(ctx)
}

func (c *Client) PauseCapture() error {
	if err := c.captureClient.Stop(); err != nil {
		return audio.NewDeviceError("stop input", err)
	}
	return nil
}

func (c *Client) ResumeCapture() error {
	if err := c.captureClient.Start(); err != nil {
		return audio.NewDeviceError("start input", err)
	}
	return nil
}

// Play queues pcm on the playback device and waits until the device has
// consumed all of it.
func (c *Client) Play(ctx context.Context, pcm []byte) error {
	if err := c.playbackClient.SendAudio(pcm); err != nil {
		return audio.NewDeviceError("write", err)
	}

	if err := c.playbackClient.AwaitMark(ctx); err != nil {
		c.playbackClient.ClearBuffer()
		return err
	}

	drained := time.NewTimer(c.playbackClient.latency())
	defer drained.Stop()
	select {
	case <-drained.C:
		return nil
	case <-ctx.Done():
		c.playbackClient.ClearBuffer()
		return ctx.Err()
	}
}

func (c *Client) PlaybackEncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: c.playbackClient.sampleRate,
		Format:     audio.EncodingLinear16,
	}
}

func (c *Client) Close() error {
	_ = c.captureClient.Uninit()
	_ = c.playbackClient.Uninit()
	if c.audioContext == nil {
		return nil
	}
	if err := c.audioContext.Uninit(); err != nil {
		return fmt.Errorf("failed to uninitialize audio context: %w", err)
	}
	c.audioContext.Free()
	c.audioContext = nil
	return nil
}
