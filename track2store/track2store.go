package track2store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	cftypes "centroidfinder/type"

	"github.com/rs/zerolog"
)

// Writer 收集每帧的记录，Save 时持久化
type Writer interface {
	AddRecord(rec cftypes.Record) error
	Save(ctx context.Context) error
}

// Header 为 CSV 首行
var Header = []string{"timeSec", "x", "y"}

// EncodeCSV 写出表头和每行 "%.2f,%d,%d"
func EncodeCSV(w io.Writer, records []cftypes.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			strconv.FormatFloat(rec.Time.Seconds(), 'f', 2, 64),
			strconv.Itoa(rec.X),
			strconv.Itoa(rec.Y),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Options 为各类 Writer 的公共选项
type Options struct {
	Log   zerolog.Logger
	RunID string
}

// Open 按目标前缀选择 Writer：s3://bucket/key、mysql:<dsn>，其余视为本地文件
func Open(ctx context.Context, target string, opts Options) (Writer, error) {
	switch {
	case strings.HasPrefix(target, "s3://"):
		return NewS3Writer(ctx, target, opts)
	case strings.HasPrefix(target, "mysql:"):
		return NewMySQLWriter(strings.TrimPrefix(target, "mysql:"), opts)
	case target == "":
		return nil, fmt.Errorf("empty output target")
	default:
		return NewCSVWriter(target, opts), nil
	}
}
