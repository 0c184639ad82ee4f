package image2binary

import (
	"fmt"
	"image"
	"image/color"

	"centroidfinder/colordistance"
	cftypes "centroidfinder/type"

	"github.com/rs/zerolog"
)

// Binarizer 在彩色图像与二值网格之间转换
type Binarizer interface {
	ToBinaryGrid(img image.Image) (cftypes.BinaryGrid, error)
	ToImage(grid cftypes.BinaryGrid) (image.Image, error)
}

// DistanceBinarizer 把与参考色距离不超过阈值的像素标记为 1
type DistanceBinarizer struct {
	metric    colordistance.ColorMetric
	reference cftypes.Color
	threshold float64
	log       zerolog.Logger
}

type Option func(*DistanceBinarizer)

// WithLogger 注入日志
func WithLogger(l zerolog.Logger) Option {
	return func(b *DistanceBinarizer) {
		b.log = l.With().Str("component", "image2binary").Logger()
	}
}

func NewDistanceBinarizer(metric colordistance.ColorMetric, reference cftypes.Color, threshold float64, opts ...Option) (*DistanceBinarizer, error) {
	if metric == nil {
		return nil, fmt.Errorf("%w: nil color metric", cftypes.ErrInvalidInput)
	}
	if threshold < 0 {
		return nil, fmt.Errorf("%w: negative threshold %v", cftypes.ErrInvalidInput, threshold)
	}
	b := &DistanceBinarizer{
		metric:    metric,
		reference: reference & 0xFFFFFF,
		threshold: threshold,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *DistanceBinarizer) Reference() cftypes.Color { return b.reference }
func (b *DistanceBinarizer) Threshold() float64       { return b.threshold }

// ToBinaryGrid 按阈值把图像二值化，网格以 Bounds().Min 为原点
func (b *DistanceBinarizer) ToBinaryGrid(img image.Image) (cftypes.BinaryGrid, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", cftypes.ErrInvalidInput)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: image is %dx%d", cftypes.ErrInvalidInput, w, h)
	}

	grid := make(cftypes.BinaryGrid, h)
	cells := make([]uint8, w*h)
	foreground := 0
	for y := 0; y < h; y++ {
		row := cells[y*w : (y+1)*w : (y+1)*w]
		for x := 0; x < w; x++ {
			c := rawColor(img, bounds.Min.X+x, bounds.Min.Y+y)
			if b.metric.Distance(c, b.reference) <= b.threshold {
				row[x] = 1
				foreground++
			}
		}
		grid[y] = row
	}

	b.log.Debug().Int("width", w).Int("height", h).Int("foreground", foreground).Msg("binarized image")
	return grid, nil
}

// ToImage 把网格还原成黑白图像：1 为不透明白色，0 为不透明黑色
func (b *DistanceBinarizer) ToImage(grid cftypes.BinaryGrid) (image.Image, error) {
	rows, cols, err := grid.Dims()
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.RGBA{A: 255}
	for y, row := range grid {
		for x, v := range row {
			if v == 1 {
				img.SetRGBA(x, y, white)
			} else {
				img.SetRGBA(x, y, black)
			}
		}
	}
	return img, nil
}

// rawColor 返回像素存储的非预乘 RGB，丢弃透明度
func rawColor(img image.Image, x, y int) cftypes.Color {
	switch m := img.(type) {
	case *image.NRGBA:
		i := m.PixOffset(x, y)
		return cftypes.RGB(m.Pix[i], m.Pix[i+1], m.Pix[i+2])
	case *image.RGBA:
		i := m.PixOffset(x, y)
		if m.Pix[i+3] == 0xFF {
			return cftypes.RGB(m.Pix[i], m.Pix[i+1], m.Pix[i+2])
		}
	}
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return cftypes.RGB(c.R, c.G, c.B)
}
