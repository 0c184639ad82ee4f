package binary2groups

import (
	"fmt"
	"sort"

	cftypes "centroidfinder/type"

	"github.com/rs/zerolog"
)

// GroupFinder 在二值网格中查找前景连通区域
type GroupFinder interface {
	FindGroups(grid cftypes.BinaryGrid) ([]cftypes.Group, error)
}

// FloodFillFinder 使用 4 邻接洪水填充查找连通区域。
// 结果按 size 降序，size 相同时按 y 降序，再按 x 降序。
type FloodFillFinder struct {
	log zerolog.Logger
}

type Option func(*FloodFillFinder)

// WithLogger 注入日志
func WithLogger(l zerolog.Logger) Option {
	return func(f *FloodFillFinder) {
		f.log = l.With().Str("component", "binary2groups").Logger()
	}
}

func NewFloodFillFinder(opts ...Option) *FloodFillFinder {
	f := &FloodFillFinder{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// 上、下、左、右
var neighbors = [4][2]int{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}

func (f *FloodFillFinder) FindGroups(grid cftypes.BinaryGrid) ([]cftypes.Group, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: grid is nil", cftypes.ErrInvalidInput)
	}
	if len(grid) == 0 {
		return []cftypes.Group{}, nil
	}
	if grid[0] == nil {
		return nil, fmt.Errorf("%w: row 0 is nil", cftypes.ErrInvalidInput)
	}
	w, h := len(grid[0]), len(grid)
	if w == 0 {
		return []cftypes.Group{}, nil
	}
	for r, row := range grid {
		if row == nil {
			return nil, fmt.Errorf("%w: row %d is nil", cftypes.ErrInvalidInput, r)
		}
		if len(row) != w {
			return nil, fmt.Errorf("%w: row %d has length %d, want %d", cftypes.ErrInvalidInput, r, len(row), w)
		}
	}

	visited := make([]bool, w*h)
	groups := []cftypes.Group{}
	queue := make([]int, 0, 64)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if grid[y][x] != 1 || visited[y*w+x] {
				continue
			}

			var sumX, sumY, count int
			queue = append(queue[:0], y*w+x)
			visited[y*w+x] = true

			for len(queue) > 0 {
				idx := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				py, px := idx/w, idx%w
				sumX += px
				sumY += py
				count++

				for _, d := range neighbors {
					nx, ny := px+d[0], py+d[1]
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					nidx := ny*w + nx
					if grid[ny][nx] == 1 && !visited[nidx] {
						visited[nidx] = true
						queue = append(queue, nidx)
					}
				}
			}

			groups = append(groups, cftypes.Group{
				Size:     count,
				Centroid: cftypes.Coordinate{X: sumX / count, Y: sumY / count},
			})
		}
	}

	SortGroups(groups)
	f.log.Debug().Int("rows", h).Int("cols", w).Int("groups", len(groups)).Msg("found groups")
	return groups, nil
}

// Less 定义区域的优先级：size 大者优先，其次 y 大者，再次 x 大者
func Less(a, b cftypes.Group) bool {
	if a.Size != b.Size {
		return a.Size > b.Size
	}
	if a.Centroid.Y != b.Centroid.Y {
		return a.Centroid.Y > b.Centroid.Y
	}
	return a.Centroid.X > b.Centroid.X
}

// SortGroups 按优先级原地排序
func SortGroups(groups []cftypes.Group) {
	sort.Slice(groups, func(i, j int) bool {
		return Less(groups[i], groups[j])
	})
}
