package video2frames

import (
	"context"
	"fmt"
	"image"
	"io"
	"time"

	cftypes "centroidfinder/type"

	"github.com/kbinani/screenshot"
)

// CaptureFunc 截取一帧屏幕
type CaptureFunc func() (image.Image, error)

// DisplayCapture 截取编号为 display 的显示器
func DisplayCapture(display int) CaptureFunc {
	return func() (image.Image, error) {
		if n := screenshot.NumActiveDisplays(); display < 0 || display >= n {
			return nil, fmt.Errorf("display %d not found (%d active)", display, n)
		}
		img, err := screenshot.CaptureDisplay(display)
		if err != nil {
			return nil, fmt.Errorf("capture display %d: %w", display, err)
		}
		return img, nil
	}
}

// ScreenSource 按固定间隔截屏，最多 maxFrames 帧
type ScreenSource struct {
	capture   CaptureFunc
	interval  time.Duration
	maxFrames int
	index     int
	start     time.Time
	now       func() time.Time
}

func NewScreenSource(capture CaptureFunc, interval time.Duration, maxFrames int) *ScreenSource {
	return &ScreenSource{capture: capture, interval: interval, maxFrames: maxFrames, now: time.Now}
}

func (s *ScreenSource) Next(ctx context.Context) (cftypes.Frame, error) {
	if s.index >= s.maxFrames {
		return cftypes.Frame{}, io.EOF
	}
	if s.index > 0 && s.interval > 0 {
		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return cftypes.Frame{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return cftypes.Frame{}, err
	}

	img, err := s.capture()
	if err != nil {
		return cftypes.Frame{}, err
	}
	now := s.now()
	if s.index == 0 {
		s.start = now
	}
	f := cftypes.Frame{Index: s.index, Time: now.Sub(s.start), Image: img}
	s.index++
	return f, nil
}

func (s *ScreenSource) Close() error { return nil }
