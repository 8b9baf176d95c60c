package screenshot

import (
	"context"
	"errors"
	"image"

	kbscreenshot "github.com/kbinani/screenshot"
)

// ErrNoDisplay indicates no capturable display is attached.
var ErrNoDisplay = errors.New("no active display")

// Capturer is the capability-checked screen grab. Platforms or headless
// environments without a display provide NoopCapturer.
type Capturer interface {
	Available() bool
	Capture(ctx context.Context) (image.Image, error)
}

// DisplayCapturer grabs the primary display.
type DisplayCapturer struct{}

func (DisplayCapturer) Available() bool {
	return kbscreenshot.NumActiveDisplays() > 0
}

func (DisplayCapturer) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if kbscreenshot.NumActiveDisplays() == 0 {
		return nil, ErrNoDisplay
	}
	bounds := kbscreenshot.GetDisplayBounds(0)
	img, err := kbscreenshot.CaptureRect(bounds)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// NoopCapturer always reports unavailable.
type NoopCapturer struct{}

func (NoopCapturer) Available() bool { return false }

func (NoopCapturer) Capture(ctx context.Context) (image.Image, error) {
	return nil, ErrNoDisplay
}
