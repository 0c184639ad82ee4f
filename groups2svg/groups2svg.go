package groups2svg

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"strconv"

	cftypes "centroidfinder/type"

	svg "github.com/ajstarks/svgo"
)

// Options 控制叠加图的内容
type Options struct {
	// Background 非空时以 PNG 内嵌为底图
	Background image.Image
	// MaxGroups 为 0 时绘制全部区域
	MaxGroups int
}

const (
	largestStyle = "fill:none;stroke:#ff3030;stroke-width:2"
	groupStyle   = "fill:none;stroke:#ffd000;stroke-width:1"
	labelStyle   = "fill:#ffffff;font-size:10px;font-family:monospace"
)

// Render 把区域质心画成圆圈，半径与面积对应，最大区域用红色标出
func Render(w io.Writer, width, height int, groups []cftypes.Group, opts Options) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: canvas is %dx%d", cftypes.ErrInvalidInput, width, height)
	}
	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Title(fmt.Sprintf("%d groups", len(groups)))

	if opts.Background != nil {
		href, err := dataURI(opts.Background)
		if err != nil {
			return err
		}
		canvas.Image(0, 0, width, height, href)
	} else {
		canvas.Rect(0, 0, width, height, "fill:black")
	}

	n := len(groups)
	if opts.MaxGroups > 0 && opts.MaxGroups < n {
		n = opts.MaxGroups
	}
	for i := n - 1; i >= 0; i-- {
		g := groups[i]
		style := groupStyle
		if i == 0 {
			style = largestStyle
		}
		r := Radius(g.Size)
		canvas.Circle(g.Centroid.X, g.Centroid.Y, r, style)
		canvas.Text(g.Centroid.X+r+2, g.Centroid.Y, strconv.Itoa(i+1), labelStyle)
	}

	canvas.End()
	return nil
}

// Radius 返回与 size 面积相同的圆的半径，最小为 2
func Radius(size int) int {
	return max(2, int(math.Round(math.Sqrt(float64(size)/math.Pi))))
}

func dataURI(img image.Image) (string, error) {
	if img == nil {
		return "", errors.New("nil background")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode background: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
