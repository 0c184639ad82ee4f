package track2store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	cftypes "centroidfinder/type"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS centroid_records (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	run_id VARCHAR(64) NOT NULL,
	frame_index INT NOT NULL,
	time_sec DOUBLE NOT NULL,
	x INT NOT NULL,
	y INT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	INDEX idx_run (run_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const insertSQL = `INSERT INTO centroid_records (run_id, frame_index, time_sec, x, y) VALUES (?, ?, ?, ?, ?)`

// MySQLWriter 把一次运行的全部记录在一个事务里写入 centroid_records
type MySQLWriter struct {
	mu      sync.Mutex
	db      *sql.DB
	dbName  string
	runID   string
	records []cftypes.Record
	log     zerolog.Logger
}

// NewMySQLWriter 校验 DSN 并打开连接池（不会立即连接）
func NewMySQLWriter(dsn string, opts Options) (*MySQLWriter, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql dsn: %w", err)
	}
	if cfg.DBName == "" {
		return nil, fmt.Errorf("mysql dsn: database name is required")
	}
	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	runID := opts.RunID
	if runID == "" {
		runID = time.Now().Format("20060102-150405")
	}
	return &MySQLWriter{
		db:     db,
		dbName: cfg.DBName,
		runID:  runID,
		log:    opts.Log.With().Str("component", "track2store").Logger(),
	}, nil
}

func (w *MySQLWriter) RunID() string { return w.runID }

func (w *MySQLWriter) AddRecord(rec cftypes.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.records = append(w.records, rec)
	return nil
}

func (w *MySQLWriter) Save(ctx context.Context) (err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	defer w.db.Close()

	if _, err = w.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range w.records {
		if _, err = stmt.ExecContext(ctx, w.runID, i, rec.Time.Seconds(), rec.X, rec.Y); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	w.log.Info().
		Str("database", w.dbName).
		Str("run_id", w.runID).
		Int("records", len(w.records)).
		Msg("records inserted")
	return nil
}
