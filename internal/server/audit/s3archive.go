package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ObjectPutter is the slice of the S3 API the archiver needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Settings describe an S3 compatible endpoint (AWS or MinIO).
type S3Settings struct {
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// NewS3Client builds an S3 client with static credentials and an optional
// custom endpoint.
func NewS3Client(ctx context.Context, s S3Settings) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(s.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.AccessKey,
			s.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Archiver buffers audit events and uploads them as JSON-lines objects.
// Write only appends; uploads happen in Run (every interval, or as soon as a
// full batch is buffered) and on Flush. A failed upload puts the batch back.
// The buffer holds at most maxPending events; beyond that the oldest are
// dropped and counted.
type S3Archiver struct {
	client     ObjectPutter
	bucket     string
	prefix     string
	batchSize  int
	maxPending int

	mu      sync.Mutex
	buf     []Event
	dropped int
	now     func() time.Time

	flushMu sync.Mutex
	full    chan struct{}
}

type ArchiverOption func(*S3Archiver)

// WithMaxPending caps the number of buffered events. Defaults to ten batches.
func WithMaxPending(n int) ArchiverOption {
	return func(a *S3Archiver) {
		if n > 0 {
			a.maxPending = n
		}
	}
}

func NewS3Archiver(client ObjectPutter, bucket, prefix string, batchSize int, opts ...ArchiverOption) *S3Archiver {
	if batchSize <= 0 {
		batchSize = 100
	}
	a := &S3Archiver{
		client:     client,
		bucket:     bucket,
		prefix:     prefix,
		batchSize:  batchSize,
		maxPending: 10 * batchSize,
		now:        time.Now,
		full:       make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(a)
	}
	if a.maxPending < a.batchSize {
		a.maxPending = a.batchSize
	}
	return a
}

// Write buffers e. It never performs I/O.
func (a *S3Archiver) Write(_ context.Context, e Event) error {
	a.mu.Lock()
	a.buf = append(a.buf, e)
	a.trimLocked()
	ready := len(a.buf) >= a.batchSize
	a.mu.Unlock()

	if ready {
		select {
		case a.full <- struct{}{}:
		default:
		}
	}
	return nil
}

func (a *S3Archiver) trimLocked() {
	if over := len(a.buf) - a.maxPending; over > 0 {
		a.dropped += over
		a.buf = append(a.buf[:0], a.buf[over:]...)
	}
}

// Flush uploads whatever is buffered.
func (a *S3Archiver) Flush(ctx context.Context) error {
	a.flushMu.Lock()
	defer a.flushMu.Unlock()

	a.mu.Lock()
	batch := a.buf
	a.buf = nil
	a.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := a.upload(ctx, batch); err != nil {
		a.mu.Lock()
		a.buf = append(batch, a.buf...)
		a.trimLocked()
		a.mu.Unlock()
		return err
	}
	return nil
}

// Pending reports the number of buffered events.
func (a *S3Archiver) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buf)
}

// Dropped reports how many events were discarded because the buffer was full.
func (a *S3Archiver) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Run flushes every interval and whenever a full batch is buffered, until
// ctx is done. It then flushes once more with a fresh context.
func (a *S3Archiver) Run(ctx context.Context, interval time.Duration, onError func(error)) {
	t := time.NewTicker(interval)
	defer t.Stop()

	flush := func(ctx context.Context) {
		if err := a.Flush(ctx); err != nil && onError != nil {
			onError(err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			fctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			flush(fctx)
			cancel()
			return
		case <-t.C:
			flush(ctx)
		case <-a.full:
			flush(ctx)
		}
	}
}

func (a *S3Archiver) objectKey() string {
	d := a.now().UTC()
	return fmt.Sprintf("%s/%d/%02d/%02d/%s.jsonl", a.prefix, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (a *S3Archiver) upload(ctx context.Context, batch []Event) error {
	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, e := range batch {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encode audit event: %w", err)
		}
	}

	key := a.objectKey()
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("put audit batch %s: %w", key, err)
	}
	return nil
}
