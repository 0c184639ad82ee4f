package cftypes

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidInput 标记调用方传入了结构不合法的输入（nil 图像、nil 网格、不规则网格等）。
// 空输入不是错误。
var ErrInvalidInput = errors.New("invalid input")

// Color 为打包的 0xRRGGBB 颜色，不含透明度
type Color uint32

// RGB 由三个通道构造颜色
func RGB(r, g, b uint8) Color {
	return Color(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }

func (c Color) String() string {
	return fmt.Sprintf("0x%06X", uint32(c)&0xFFFFFF)
}

// ParseColor 解析 "FF0000"、"#FF0000" 或 "0xFF0000" 形式的颜色
func ParseColor(s string) (Color, error) {
	hex := strings.TrimSpace(s)
	hex = strings.TrimPrefix(hex, "#")
	hex = strings.TrimPrefix(strings.TrimPrefix(hex, "0x"), "0X")
	if len(hex) != 6 {
		return 0, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", s, err)
	}
	return Color(v), nil
}

// Coordinate 中 X 为列号（向右递增），Y 为行号（向下递增）
type Coordinate struct {
	X int
	Y int
}

// Group 表示一个连通区域：像素数与质心
type Group struct {
	Size     int
	Centroid Coordinate
}

// BinaryGrid 为二值网格，按 [行][列] 索引，1 为前景，0 为背景
type BinaryGrid [][]uint8

// Dims 校验网格为非空矩形并返回行列数
func (g BinaryGrid) Dims() (rows, cols int, err error) {
	if g == nil {
		return 0, 0, fmt.Errorf("%w: grid is nil", ErrInvalidInput)
	}
	if len(g) == 0 {
		return 0, 0, fmt.Errorf("%w: grid has no rows", ErrInvalidInput)
	}
	cols = len(g[0])
	for r, row := range g {
		if row == nil {
			return 0, 0, fmt.Errorf("%w: row %d is nil", ErrInvalidInput, r)
		}
		if len(row) != cols {
			return 0, 0, fmt.Errorf("%w: row %d has length %d, want %d", ErrInvalidInput, r, len(row), cols)
		}
	}
	if cols == 0 {
		return 0, 0, fmt.Errorf("%w: grid has no columns", ErrInvalidInput)
	}
	return len(g), cols, nil
}

// Frame 表示来自帧源的一帧图像
type Frame struct {
	Index int
	Time  time.Duration
	Image image.Image
}

// Record 为一帧的持久化结果：时间与最大区域的质心，没有区域时为 (-1, -1)
type Record struct {
	Time time.Duration
	X    int
	Y    int
}

// NoGroup 是未找到任何区域时写入的哨兵坐标
var NoGroup = Coordinate{X: -1, Y: -1}

// RecordFor 取有序结果中的第一个（最大的）区域生成记录
func RecordFor(t time.Duration, groups []Group) Record {
	c := NoGroup
	if len(groups) > 0 {
		c = groups[0].Centroid
	}
	return Record{Time: t, X: c.X, Y: c.Y}
}
