package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector 汇总逐帧分析的指标，使用独立的 Registry
type Collector struct {
	registry *prometheus.Registry

	FramesProcessed    prometheus.Counter
	FramesWithoutGroup prometheus.Counter
	InvalidFrames      prometheus.Counter
	GroupsPerFrame     prometheus.Histogram
	AnalysisDuration   prometheus.Histogram
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		FramesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "centroidfinder",
			Name:      "frames_processed_total",
			Help:      "Frames analyzed.",
		}),
		FramesWithoutGroup: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "centroidfinder",
			Name:      "frames_without_group_total",
			Help:      "Frames in which no pixel matched the target color.",
		}),
		InvalidFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "centroidfinder",
			Name:      "frames_invalid_total",
			Help:      "Frames rejected as invalid input.",
		}),
		GroupsPerFrame: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "centroidfinder",
			Name:      "groups_per_frame",
			Help:      "Connected groups found per frame.",
			Buckets:   []float64{0, 1, 2, 5, 10, 50, 100, 1000},
		}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "centroidfinder",
			Name:      "frame_analysis_seconds",
			Help:      "Time spent binarizing and grouping one frame.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
	c.registry.MustRegister(
		c.FramesProcessed,
		c.FramesWithoutGroup,
		c.InvalidFrames,
		c.GroupsPerFrame,
		c.AnalysisDuration,
	)
	return c
}

// ObserveFrame 记录一帧的分析结果
func (c *Collector) ObserveFrame(groups int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.FramesProcessed.Inc()
	if groups == 0 {
		c.FramesWithoutGroup.Inc()
	}
	c.GroupsPerFrame.Observe(float64(groups))
	c.AnalysisDuration.Observe(elapsed.Seconds())
}

// ObserveInvalid 记录被判定为非法输入的帧
func (c *Collector) ObserveInvalid() {
	if c == nil {
		return
	}
	c.FramesProcessed.Inc()
	c.InvalidFrames.Inc()
}

// Handler 返回 /metrics 处理器
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
