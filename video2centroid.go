package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"centroidfinder/binary2svg"
	"centroidfinder/groups2svg"
	"centroidfinder/image2binary"
	"centroidfinder/image2groups"
	"centroidfinder/metrics"
	"centroidfinder/track2store"
	cftypes "centroidfinder/type"
	"centroidfinder/video2frames"

	"github.com/rs/zerolog"
)

// DebugOutput 为指定帧输出诊断文件
type DebugOutput struct {
	Frame     int
	Dir       string
	Binarizer image2binary.Binarizer
}

// Runner 逐帧查找目标颜色区域，把最大区域的质心写入 Writer
type Runner struct {
	Source  video2frames.Source
	Finder  image2groups.ImageGroupFinder
	Writer  track2store.Writer
	Metrics *metrics.Collector
	Debug   *DebugOutput

	// Workers <= 1 时串行处理
	Workers       int
	MaxFrames     int
	ProgressEvery int
	Log           zerolog.Logger
}

type frameJob struct {
	seq   int
	frame cftypes.Frame
}

type frameResult struct {
	seq     int
	record  cftypes.Record
	largest int
}

// Run 处理全部帧后调用 Writer.Save，并返回统计摘要
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var (
		records []cftypes.Record
		sizes   []int
	)
	emit := func(res frameResult) error {
		if err := r.Writer.AddRecord(res.record); err != nil {
			return fmt.Errorf("add record %d: %w", res.seq, err)
		}
		records = append(records, res.record)
		sizes = append(sizes, res.largest)
		if r.ProgressEvery > 0 && len(records)%r.ProgressEvery == 0 {
			r.Log.Info().
				Int("frames", len(records)).
				Float64("seconds", res.record.Time.Seconds()).
				Msg("progress")
		}
		return nil
	}

	start := time.Now()
	var err error
	if r.Workers > 1 {
		err = r.runParallel(ctx, emit)
	} else {
		err = r.runSerial(ctx, emit)
	}
	if err != nil {
		return Summary{}, err
	}

	if err := r.Writer.Save(ctx); err != nil {
		return Summary{}, fmt.Errorf("save: %w", err)
	}
	summary := Summarize(records, sizes)
	summary.Elapsed = time.Since(start)
	summary.Log(r.Log)
	return summary, nil
}

// next 读取下一帧；达到 MaxFrames 时返回 io.EOF
func (r *Runner) next(ctx context.Context, read int) (cftypes.Frame, error) {
	if r.MaxFrames > 0 && read >= r.MaxFrames {
		return cftypes.Frame{}, io.EOF
	}
	return r.Source.Next(ctx)
}

func (r *Runner) runSerial(ctx context.Context, emit func(frameResult) error) error {
	for seq := 0; ; seq++ {
		f, err := r.next(ctx, seq)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		res, err := r.analyze(f)
		if err != nil {
			return err
		}
		res.seq = seq
		if err := emit(res); err != nil {
			return err
		}
	}
}

// runParallel 单协程读帧，多协程分析，按读取顺序重新排列结果
func (r *Runner) runParallel(parent context.Context, emit func(frameResult) error) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var (
		mu     sync.Mutex
		runErr error
	)
	fail := func(err error) {
		mu.Lock()
		if runErr == nil {
			runErr = err
		}
		mu.Unlock()
		cancel()
	}

	jobs := make(chan frameJob, r.Workers)
	results := make(chan frameResult, r.Workers)

	go func() {
		defer close(jobs)
		for seq := 0; ; seq++ {
			f, err := r.next(ctx, seq)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if ctx.Err() == nil {
					fail(err)
				}
				return
			}
			select {
			case jobs <- frameJob{seq: seq, frame: f}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < r.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				res, err := r.analyze(job.frame)
				if err != nil {
					fail(err)
					return
				}
				res.seq = job.seq
				select {
				case results <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	pending := make(map[int]frameResult)
	next := 0
	for res := range results {
		if ctx.Err() != nil {
			continue
		}
		pending[res.seq] = res
		for {
			p, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			if err := emit(p); err != nil {
				fail(err)
				break
			}
			next++
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if runErr != nil {
		return runErr
	}
	return parent.Err()
}

// analyze 对单帧运行流水线；非法输入的帧记为 (-1, -1)
func (r *Runner) analyze(f cftypes.Frame) (frameResult, error) {
	start := time.Now()
	groups, err := r.Finder.FindGroups(f.Image)
	if errors.Is(err, cftypes.ErrInvalidInput) {
		r.Log.Warn().Err(err).Int("frame", f.Index).Msg("frame skipped")
		r.Metrics.ObserveInvalid()
		return frameResult{record: cftypes.RecordFor(f.Time, nil)}, nil
	}
	if err != nil {
		return frameResult{}, fmt.Errorf("frame %d: %w", f.Index, err)
	}
	r.Metrics.ObserveFrame(len(groups), time.Since(start))

	if r.Debug != nil && r.Debug.Frame == f.Index {
		if err := r.Debug.write(f, groups); err != nil {
			r.Log.Warn().Err(err).Int("frame", f.Index).Msg("debug output failed")
		} else {
			r.Log.Info().Int("frame", f.Index).Str("dir", r.Debug.Dir).Msg("debug output written")
		}
	}

	res := frameResult{record: cftypes.RecordFor(f.Time, groups)}
	if len(groups) > 0 {
		res.largest = groups[0].Size
	}
	return res, nil
}

// write 输出掩码轮廓 SVG、掩码 PNG 和质心叠加 SVG
func (d *DebugOutput) write(f cftypes.Frame, groups []cftypes.Group) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return err
	}
	base := filepath.Join(d.Dir, fmt.Sprintf("frame_%06d", f.Index))

	grid, err := d.Binarizer.ToBinaryGrid(f.Image)
	if err != nil {
		return err
	}
	mask, err := binary2svg.Trace(grid)
	if err != nil {
		return fmt.Errorf("trace mask: %w", err)
	}
	if err := os.WriteFile(base+"_mask.svg", []byte(mask.SVGData), 0o644); err != nil {
		return err
	}

	img, err := d.Binarizer.ToImage(grid)
	if err != nil {
		return err
	}
	if err := writeFile(base+"_mask.png", func(w io.Writer) error { return png.Encode(w, img) }); err != nil {
		return err
	}

	b := f.Image.Bounds()
	return writeFile(base+"_overlay.svg", func(w io.Writer) error {
		return groups2svg.Render(w, b.Dx(), b.Dy(), groups, groups2svg.Options{Background: f.Image, MaxGroups: 50})
	})
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
