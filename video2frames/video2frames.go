package video2frames

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"strconv"
	"sync"
	"time"

	cftypes "centroidfinder/type"

	"github.com/rs/zerolog"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Source 逐帧提供图像；耗尽时返回 io.EOF
type Source interface {
	Next(ctx context.Context) (cftypes.Frame, error)
	Close() error
}

// VideoOptions 控制 ffmpeg 抽帧
type VideoOptions struct {
	// FPS 为 0 时按视频平均帧率输出每一帧
	FPS      float64
	MaxWidth int
	Log      zerolog.Logger
}

// VideoSource 通过 ffmpeg 的 image2pipe 输出 PNG 流，边解码边产出帧
type VideoSource struct {
	*streamSource
	Info VideoInfo

	cancel context.CancelFunc
	done   chan error
	stderr *tailWriter
	log    zerolog.Logger
	once   sync.Once
	err    error
}

// OpenVideo 启动 ffmpeg 并返回帧源；调用方必须 Close
func OpenVideo(ctx context.Context, videoPath string, opts VideoOptions) (*VideoSource, error) {
	info, err := ProbeVideo(videoPath)
	if err != nil {
		return nil, err
	}
	fps := opts.FPS
	if fps <= 0 {
		fps = info.FrameRate
	}
	if fps <= 0 {
		return nil, fmt.Errorf("cannot determine frame rate of %s", videoPath)
	}

	kw := ffmpeg.KwArgs{
		"format": "image2pipe",
		"vcodec": "png",
	}
	if opts.FPS > 0 {
		kw["r"] = strconv.FormatFloat(opts.FPS, 'f', -1, 64)
	}
	if opts.MaxWidth > 0 && opts.MaxWidth < info.Width {
		kw["vf"] = fmt.Sprintf("scale=%d:-2", opts.MaxWidth)
	}

	ctx, cancel := context.WithCancel(ctx)
	r, w := io.Pipe()
	stderr := newTailWriter(4096)

	cmd := ffmpeg.Input(videoPath).
		Output("pipe:1", kw).
		WithOutput(w).
		WithErrorOutput(stderr)
	cmd.Context = ctx

	done := make(chan error, 1)
	go func() {
		err := cmd.Run()
		w.CloseWithError(err)
		done <- err
	}()

	log := opts.Log.With().Str("component", "video2frames").Logger()
	log.Info().
		Str("path", videoPath).
		Int("width", info.Width).
		Int("height", info.Height).
		Float64("fps", fps).
		Int("frames", info.TotalFrames).
		Msg("started frame extraction")

	return &VideoSource{
		streamSource: newStreamSource(r, fps),
		Info:         info,
		cancel:       cancel,
		done:         done,
		stderr:       stderr,
		log:          log,
	}, nil
}

func (v *VideoSource) Next(ctx context.Context) (cftypes.Frame, error) {
	f, err := v.streamSource.Next(ctx)
	if err != nil && !errors.Is(err, io.EOF) && v.stderr.Len() > 0 {
		err = fmt.Errorf("%w\nffmpeg: %s", err, v.stderr.String())
	}
	return f, err
}

// Close 停止 ffmpeg；若帧流已正常读完则返回 ffmpeg 的退出错误
func (v *VideoSource) Close() error {
	v.once.Do(func() {
		finished := v.eof
		v.cancel()
		v.r.Close()
		err := <-v.done
		if finished && err != nil {
			v.err = fmt.Errorf("ffmpeg: %w", err)
		}
		v.log.Debug().Int("frames", v.index).Msg("stopped frame extraction")
	})
	return v.err
}

// streamSource 从连续的 PNG 字节流中解码帧
type streamSource struct {
	r     io.ReadCloser
	br    *bufio.Reader
	fps   float64
	index int
	eof   bool
}

func newStreamSource(r io.ReadCloser, fps float64) *streamSource {
	return &streamSource{r: r, br: bufio.NewReaderSize(r, 64*1024), fps: fps}
}

func (s *streamSource) Next(ctx context.Context) (cftypes.Frame, error) {
	if err := ctx.Err(); err != nil {
		return cftypes.Frame{}, err
	}
	if s.eof {
		return cftypes.Frame{}, io.EOF
	}
	if _, err := s.br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			s.eof = true
			return cftypes.Frame{}, io.EOF
		}
		return cftypes.Frame{}, fmt.Errorf("read frame %d failed: %w", s.index, err)
	}
	img, err := png.Decode(s.br)
	if err != nil {
		return cftypes.Frame{}, fmt.Errorf("decode frame %d failed: %w", s.index, err)
	}
	f := cftypes.Frame{Index: s.index, Time: FrameTime(s.index, s.fps), Image: img}
	s.index++
	return f, nil
}

func (s *streamSource) Close() error {
	return s.r.Close()
}

// FrameTime 返回第 index 帧的时间戳
func FrameTime(index int, fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(index) / fps * float64(time.Second))
}

// tailWriter 只保留 ffmpeg stderr 的最后 max 字节
type tailWriter struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func newTailWriter(max int) *tailWriter {
	return &tailWriter{max: max}
}

func (t *tailWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = append([]byte(nil), t.buf[len(t.buf)-t.max:]...)
	}
	return len(p), nil
}

func (t *tailWriter) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buf)
}

func (t *tailWriter) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
