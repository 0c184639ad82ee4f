package colordistance

import (
	"math"

	cftypes "centroidfinder/type"
)

// MaxEuclidean 为 RGB 空间中两种颜色的最大欧氏距离 sqrt(3*255^2)
var MaxEuclidean = math.Sqrt(3 * 255 * 255)

// ColorMetric 计算两种颜色之间的距离
type ColorMetric interface {
	Distance(a, b cftypes.Color) float64
}

// Euclidean 把颜色看作 RGB 三维空间中的点
type Euclidean struct{}

func (Euclidean) Distance(a, b cftypes.Color) float64 {
	dr := float64(int(a.R()) - int(b.R()))
	dg := float64(int(a.G()) - int(b.G()))
	db := float64(int(a.B()) - int(b.B()))
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// MetricFunc 让普通函数满足 ColorMetric
type MetricFunc func(a, b cftypes.Color) float64

func (f MetricFunc) Distance(a, b cftypes.Color) float64 { return f(a, b) }
