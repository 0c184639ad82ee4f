package track2store

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	cftypes "centroidfinder/type"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rs/zerolog"
)

// Uploader 为 s3manager.Uploader 的子集，便于测试替换
type Uploader interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// S3Writer 把 CSV 轨迹上传到 S3
type S3Writer struct {
	mu       sync.Mutex
	bucket   string
	key      string
	uploader Uploader
	records  []cftypes.Record
	log      zerolog.Logger
}

// ParseS3URL 解析 s3://bucket/key
func ParseS3URL(target string) (bucket, key string, err error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", "", fmt.Errorf("parse %q: %w", target, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("%q is not an s3://bucket/key url", target)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("%q has no object key", target)
	}
	return u.Host, key, nil
}

// NewS3Writer 使用默认凭证链（环境变量、共享配置）创建会话
func NewS3Writer(ctx context.Context, target string, opts Options) (*S3Writer, error) {
	bucket, key, err := ParseS3URL(target)
	if err != nil {
		return nil, err
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return newS3Writer(bucket, key, s3manager.NewUploader(sess), opts), nil
}

func newS3Writer(bucket, key string, uploader Uploader, opts Options) *S3Writer {
	return &S3Writer{
		bucket:   bucket,
		key:      key,
		uploader: uploader,
		log:      opts.Log.With().Str("component", "track2store").Logger(),
	}
}

func (w *S3Writer) AddRecord(rec cftypes.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.records = append(w.records, rec)
	return nil
}

func (w *S3Writer) Save(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var buf bytes.Buffer
	if err := EncodeCSV(&buf, w.records); err != nil {
		return err
	}
	out, err := w.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(w.key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", w.bucket, w.key, err)
	}
	w.log.Info().Str("location", out.Location).Int("records", len(w.records)).Msg("file uploaded")
	return nil
}
