package track2store

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	cftypes "centroidfinder/type"

	"github.com/rs/zerolog"
)

// CSVWriter 在内存中缓存记录，Save 时一次写入文件
type CSVWriter struct {
	mu         sync.Mutex
	outputPath string
	records    []cftypes.Record
	log        zerolog.Logger
}

func NewCSVWriter(outputPath string, opts Options) *CSVWriter {
	return &CSVWriter{
		outputPath: outputPath,
		log:        opts.Log.With().Str("component", "track2store").Logger(),
	}
}

func (w *CSVWriter) AddRecord(rec cftypes.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.records = append(w.records, rec)
	return nil
}

func (w *CSVWriter) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(w.outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(w.outputPath)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := EncodeCSV(bw, w.records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", w.outputPath, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", w.outputPath, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	w.log.Info().Str("path", w.outputPath).Int("records", len(w.records)).Msg("file saved")
	return nil
}
