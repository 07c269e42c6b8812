package audio

import "fmt"

// DeviceError reports that an audio device failed to deliver or accept
// audio. A session cannot continue without a working microphone, so callers
// treat it as fatal.
type DeviceError struct {
	// Op is the device operation that failed, e.g. "read" or "start".
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device %s failed: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// NewDeviceError wraps err as a [DeviceError] for the given operation.
func NewDeviceError(op string, err error) *DeviceError {
	return &DeviceError{Op: op, Err: err}
}
