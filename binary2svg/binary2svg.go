package binary2svg

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	cftypes "centroidfinder/type"

	"github.com/gotranspile/gotrace"
	"github.com/rustyoz/svg"
)

// MaskSVG 为二值网格的前景轮廓
type MaskSVG struct {
	SVGData string
	Width   int
	Height  int
}

// Trace 使用 gotrace 把网格前景描成矢量轮廓
func Trace(grid cftypes.BinaryGrid) (MaskSVG, error) {
	mask, err := ToGray(grid)
	if err != nil {
		return MaskSVG{}, err
	}
	svgStr, err := traceGrayToSVG(mask)
	if err != nil {
		return MaskSVG{}, err
	}
	w, h, err := viewBoxSize(svgStr)
	if err != nil {
		return MaskSVG{}, err
	}
	// 没有 viewBox 时退回网格尺寸
	if w == 0 || h == 0 {
		b := mask.Bounds()
		w, h = b.Dx(), b.Dy()
	}
	return MaskSVG{SVGData: svgStr, Width: w, Height: h}, nil
}

// ToGray 生成黑白掩码图：黑=前景，白=背景
func ToGray(grid cftypes.BinaryGrid) (*image.Gray, error) {
	rows, cols, err := grid.Dims()
	if err != nil {
		return nil, err
	}
	mask := image.NewGray(image.Rect(0, 0, cols, rows))
	for y, row := range grid {
		for x, v := range row {
			if v == 1 {
				mask.SetGray(x, y, color.Gray{Y: 0})
			} else {
				mask.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return mask, nil
}

// traceGrayToSVG 核心：使用 gotrace 将 image.Gray 转 SVG 字符串
func traceGrayToSVG(mask *image.Gray) (string, error) {
	bm := gotrace.BitmapFromGray(mask, nil)

	paths, err := gotrace.Trace(bm, nil)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	sz := mask.Bounds().Size()
	if err := gotrace.Render("svg", nil, &buf, paths, sz.X, sz.Y); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// viewBoxSize 从 SVG 的 viewBox 读取宽高
func viewBoxSize(svgData string) (int, int, error) {
	parsed, err := svg.ParseSvg(svgData, "mask", 1.0)
	if err != nil {
		return 0, 0, fmt.Errorf("parse traced svg: %w", err)
	}
	fields := strings.Fields(strings.ReplaceAll(parsed.ViewBox, ",", " "))
	if len(fields) == 0 {
		return 0, 0, nil
	}
	if len(fields) != 4 {
		return 0, 0, fmt.Errorf("unexpected viewBox %q", parsed.ViewBox)
	}
	w, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("viewBox width: %w", err)
	}
	h, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("viewBox height: %w", err)
	}
	return int(w), int(h), nil
}
