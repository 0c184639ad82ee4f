package main

import (
	"time"

	cftypes "centroidfinder/type"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// Summary 为一次运行的轨迹统计
type Summary struct {
	Frames   int
	Detected int
	MeanX    float64
	StdX     float64
	MeanY    float64
	StdY     float64
	// MeanSize 为检测到区域的帧中最大区域像素数的均值
	MeanSize float64
	Elapsed  time.Duration
}

// Summarize 统计有检测结果的帧；sizes 与 records 一一对应
func Summarize(records []cftypes.Record, sizes []int) Summary {
	s := Summary{Frames: len(records)}
	var xs, ys, ns []float64
	for i, rec := range records {
		if rec.X == cftypes.NoGroup.X && rec.Y == cftypes.NoGroup.Y {
			continue
		}
		xs = append(xs, float64(rec.X))
		ys = append(ys, float64(rec.Y))
		if i < len(sizes) {
			ns = append(ns, float64(sizes[i]))
		}
	}
	s.Detected = len(xs)
	switch len(xs) {
	case 0:
		return s
	case 1:
		// 单个样本的无偏标准差没有定义
		s.MeanX, s.MeanY = xs[0], ys[0]
	default:
		s.MeanX, s.StdX = stat.MeanStdDev(xs, nil)
		s.MeanY, s.StdY = stat.MeanStdDev(ys, nil)
	}
	if len(ns) > 0 {
		s.MeanSize = stat.Mean(ns, nil)
	}
	return s
}

func (s Summary) Log(log zerolog.Logger) {
	log.Info().
		Int("frames", s.Frames).
		Int("detected", s.Detected).
		Float64("mean_x", s.MeanX).
		Float64("std_x", s.StdX).
		Float64("mean_y", s.MeanY).
		Float64("std_y", s.StdY).
		Float64("mean_size", s.MeanSize).
		Dur("elapsed", s.Elapsed).
		Msg("done")
}
