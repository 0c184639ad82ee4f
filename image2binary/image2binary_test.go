package image2binary

import (
	"image"
	"image/color"
	"testing"

	"centroidfinder/colordistance"
	cftypes "centroidfinder/type"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedMetric(d float64) colordistance.ColorMetric {
	return colordistance.MetricFunc(func(a, b cftypes.Color) float64 { return d })
}

func twoPixels(c1, c2 color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, c1)
	img.SetNRGBA(1, 0, c2)
	return img
}

var (
	redOpaque        = color.NRGBA{R: 255, A: 255}
	blueTransparent  = color.NRGBA{B: 255, A: 10}
	reference        = cftypes.Color(0x101010)
	defaultThreshold = 50.0
)

func TestToBinaryGridThreshold(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		want     []uint8
	}{
		{"below threshold", 10, []uint8{1, 1}},
		{"exactly threshold", defaultThreshold, []uint8{1, 1}},
		{"above threshold", 60, []uint8{0, 0}},
		{"just above threshold", 50.000001, []uint8{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewDistanceBinarizer(fixedMetric(tt.distance), reference, defaultThreshold)
			require.NoError(t, err)
			grid, err := b.ToBinaryGrid(twoPixels(redOpaque, blueTransparent))
			require.NoError(t, err)
			require.Len(t, grid, 1)
			assert.Equal(t, tt.want, []uint8(grid[0]))
		})
	}
}

func TestToBinaryGridMasksAlpha(t *testing.T) {
	var seen []cftypes.Color
	metric := colordistance.MetricFunc(func(pixel, target cftypes.Color) float64 {
		seen = append(seen, pixel)
		assert.Equal(t, reference, target)
		return 0
	})
	b, err := NewDistanceBinarizer(metric, reference, defaultThreshold)
	require.NoError(t, err)

	_, err = b.ToBinaryGrid(twoPixels(blueTransparent, blueTransparent))
	require.NoError(t, err)
	assert.Equal(t, []cftypes.Color{0x0000FF, 0x0000FF}, seen)
}

func TestToBinaryGridEuclideanBoundary(t *testing.T) {
	// (3,4,0) 到黑色的距离正好是 5
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 3, G: 4, A: 255})
	img.SetRGBA(1, 0, color.RGBA{R: 3, G: 5, A: 255})
	img.SetRGBA(2, 0, color.RGBA{A: 255})

	b, err := NewDistanceBinarizer(colordistance.Euclidean{}, 0x000000, 5)
	require.NoError(t, err)
	grid, err := b.ToBinaryGrid(img)
	require.NoError(t, err)
	assert.Equal(t, cftypes.BinaryGrid{{1, 0, 1}}, grid)
}

func TestToBinaryGridOffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 20, 12, 22))
	img.SetRGBA(11, 21, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	b, err := NewDistanceBinarizer(colordistance.Euclidean{}, 0xFFFFFF, 0)
	require.NoError(t, err)
	grid, err := b.ToBinaryGrid(img)
	require.NoError(t, err)
	assert.Equal(t, cftypes.BinaryGrid{{0, 0}, {0, 1}}, grid)
}

func TestToBinaryGridGenericImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.SetGray(0, 0, color.Gray{Y: 255})

	b, err := NewDistanceBinarizer(colordistance.Euclidean{}, 0xFFFFFF, 1)
	require.NoError(t, err)
	grid, err := b.ToBinaryGrid(img)
	require.NoError(t, err)
	assert.Equal(t, cftypes.BinaryGrid{{1, 0}}, grid)
}

func TestToBinaryGridInvalid(t *testing.T) {
	b, err := NewDistanceBinarizer(fixedMetric(0), reference, defaultThreshold)
	require.NoError(t, err)

	_, err = b.ToBinaryGrid(nil)
	assert.ErrorIs(t, err, cftypes.ErrInvalidInput)

	_, err = b.ToBinaryGrid(image.NewRGBA(image.Rect(0, 0, 0, 4)))
	assert.ErrorIs(t, err, cftypes.ErrInvalidInput)
}

func TestNewDistanceBinarizerRejectsBadConfig(t *testing.T) {
	_, err := NewDistanceBinarizer(fixedMetric(0), reference, -1)
	assert.ErrorIs(t, err, cftypes.ErrInvalidInput)

	_, err = NewDistanceBinarizer(nil, reference, 1)
	assert.ErrorIs(t, err, cftypes.ErrInvalidInput)
}

func TestToImage(t *testing.T) {
	b, err := NewDistanceBinarizer(fixedMetric(0), reference, defaultThreshold)
	require.NoError(t, err)

	out, err := b.ToImage(cftypes.BinaryGrid{{1, 0}, {0, 1}})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), out.Bounds())
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.RGBA{A: 255}
	assert.Equal(t, white, out.At(0, 0))
	assert.Equal(t, black, out.At(1, 0))
	assert.Equal(t, black, out.At(0, 1))
	assert.Equal(t, white, out.At(1, 1))
}

func TestToImageInvalid(t *testing.T) {
	b, err := NewDistanceBinarizer(fixedMetric(0), reference, defaultThreshold)
	require.NoError(t, err)

	for name, grid := range map[string]cftypes.BinaryGrid{
		"nil":        nil,
		"no rows":    {},
		"zero width": {{}, {}, {}, {}, {}},
		"ragged":     {{1, 0}, {1}},
		"nil row":    {{1}, nil},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := b.ToImage(grid)
			assert.ErrorIs(t, err, cftypes.ErrInvalidInput)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	grid := cftypes.BinaryGrid{{1, 1, 0}, {0, 1, 0}, {1, 0, 0}}
	b, err := NewDistanceBinarizer(colordistance.Euclidean{}, 0xFFFFFF, 0)
	require.NoError(t, err)

	img, err := b.ToImage(grid)
	require.NoError(t, err)
	back, err := b.ToBinaryGrid(img)
	require.NoError(t, err)
	assert.Equal(t, grid, back)
}
