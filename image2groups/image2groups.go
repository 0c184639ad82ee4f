package image2groups

import (
	"fmt"
	"image"

	"centroidfinder/binary2groups"
	"centroidfinder/colordistance"
	"centroidfinder/image2binary"
	cftypes "centroidfinder/type"

	"github.com/rs/zerolog"
)

// ImageGroupFinder 直接从彩色图像查找连通区域
type ImageGroupFinder interface {
	FindGroups(img image.Image) ([]cftypes.Group, error)
}

// BinarizingFinder 先二值化，再在网格上查找区域，结果原样返回
type BinarizingFinder struct {
	binarizer image2binary.Binarizer
	finder    binary2groups.GroupFinder
}

func NewBinarizingFinder(binarizer image2binary.Binarizer, finder binary2groups.GroupFinder) *BinarizingFinder {
	return &BinarizingFinder{binarizer: binarizer, finder: finder}
}

// New 用欧氏距离、给定参考色和阈值组装默认流水线
func New(target cftypes.Color, threshold float64, log zerolog.Logger) (*BinarizingFinder, error) {
	binarizer, err := image2binary.NewDistanceBinarizer(colordistance.Euclidean{}, target, threshold, image2binary.WithLogger(log))
	if err != nil {
		return nil, err
	}
	return NewBinarizingFinder(binarizer, binary2groups.NewFloodFillFinder(binary2groups.WithLogger(log))), nil
}

func (f *BinarizingFinder) FindGroups(img image.Image) ([]cftypes.Group, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", cftypes.ErrInvalidInput)
	}
	grid, err := f.binarizer.ToBinaryGrid(img)
	if err != nil {
		return nil, err
	}
	return f.finder.FindGroups(grid)
}

// Binarizer 供诊断输出复用同一个二值化器
func (f *BinarizingFinder) Binarizer() image2binary.Binarizer { return f.binarizer }
