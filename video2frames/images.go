package video2frames

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	cftypes "centroidfinder/type"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageSource 把一组静态图片当作帧序列
type ImageSource struct {
	paths    []string
	interval time.Duration
	index    int
}

func NewImageSource(paths []string, interval time.Duration) *ImageSource {
	return &ImageSource{paths: paths, interval: interval}
}

// GlobImages 展开 glob 模式并按文件名排序
func GlobImages(pattern string) ([]string, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images match %q", pattern)
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *ImageSource) Next(ctx context.Context) (cftypes.Frame, error) {
	if err := ctx.Err(); err != nil {
		return cftypes.Frame{}, err
	}
	if s.index >= len(s.paths) {
		return cftypes.Frame{}, io.EOF
	}
	path := s.paths[s.index]
	img, err := LoadImage(path)
	if err != nil {
		return cftypes.Frame{}, err
	}
	f := cftypes.Frame{Index: s.index, Time: time.Duration(s.index) * s.interval, Image: img}
	s.index++
	return f, nil
}

func (s *ImageSource) Close() error { return nil }

// LoadImage 解码 PNG/JPEG/GIF/BMP/TIFF/WebP 图片
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s failed: %w", path, err)
	}
	return img, nil
}
