package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// Page is one page of a container listing.
type Page struct {
	Entries   []Entry
	NextToken string
	HasMore   bool
}

// ObjectMeta is the result of a head request.
type ObjectMeta struct {
	Bucket       string
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
	ContentType  string
}

// Store is the asynchronous gateway to the remote object store. Every
// operation takes a context and is individually cancellable; errors are
// classified into the sentinel taxonomy in errors.go.
type Store interface {
	// ListChildren lists one page of a container's children: buckets for
	// the root container, common prefixes and objects otherwise.
	ListChildren(ctx context.Context, c Container, pageToken string) (Page, error)

	// HeadObject fetches object metadata.
	HeadObject(ctx context.Context, bucket, key string) (ObjectMeta, error)

	// FetchPrefix retrieves at most maxBytes leading bytes of an object.
	FetchPrefix(ctx context.Context, bucket, key string, maxBytes int64) ([]byte, error)

	// Download streams an object to path, reporting monotonically
	// increasing byte counts to progress. On cancellation the partial
	// file is left on disk; cleanup is the caller's responsibility.
	Download(ctx context.Context, bucket, key, path string, progress func(int64)) error

	// Upload streams a local file to an object key.
	Upload(ctx context.Context, path, bucket, key string, progress func(int64)) error

	// DeleteObject removes a single object.
	DeleteObject(ctx context.Context, bucket, key string) error
}

// S3Store implements Store on top of the AWS SDK v2 S3 client.
type S3Store struct {
	client   *s3.Client
	pageSize int32
	timeout  time.Duration
	log      *zap.Logger
}

var _ Store = (*S3Store)(nil)

// NewS3Store builds the authenticated client from the loaded configuration.
func NewS3Store(ctx context.Context, cfg *Config, log *zap.Logger) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint() != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint())
		}
		o.UsePathStyle = cfg.PathStyle // required for MinIO and friends
	})

	return &S3Store{
		client:   client,
		pageSize: cfg.PageSize,
		timeout:  cfg.RequestTimeout,
		log:      log,
	}, nil
}

// HeadBucket verifies that a bucket exists and is reachable. Used at
// startup when a bucket argument is given.
func (s *S3Store) HeadBucket(ctx context.Context, bucket string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	return classify("HeadBucket", bucket, "", err)
}

func (s *S3Store) ListChildren(ctx context.Context, c Container, pageToken string) (Page, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if c.IsRoot() {
		return s.listBuckets(ctx)
	}

	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(c.Bucket),
		Prefix:    aws.String(c.Prefix),
		Delimiter: aws.String("/"),
		MaxKeys:   aws.Int32(s.pageSize),
	}
	if pageToken != "" {
		input.ContinuationToken = aws.String(pageToken)
	}

	out, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return Page{}, classify("List", c.Bucket, c.Prefix, err)
	}

	var entries []Entry
	for _, p := range out.CommonPrefixes {
		prefix := aws.ToString(p.Prefix)
		entries = append(entries, Entry{
			Kind: EntryDir,
			Name: filepath.Base(prefix),
			Key:  prefix,
		})
	}
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		if key == c.Prefix {
			continue // the directory marker for the prefix itself
		}
		entries = append(entries, Entry{
			Kind:         EntryObject,
			Name:         filepath.Base(key),
			Key:          key,
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
			ETag:         cleanETag(aws.ToString(obj.ETag)),
		})
	}

	page := Page{
		Entries:   entries,
		NextToken: aws.ToString(out.NextContinuationToken),
		HasMore:   aws.ToBool(out.IsTruncated),
	}
	s.log.Debug("listed children",
		zap.String("container", c.Key()),
		zap.Int("entries", len(entries)),
		zap.Bool("hasMore", page.HasMore))
	return page, nil
}

func (s *S3Store) listBuckets(ctx context.Context) (Page, error) {
	out, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return Page{}, classify("ListBuckets", "", "", err)
	}

	entries := make([]Entry, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		entries = append(entries, Entry{
			Kind:         EntryBucket,
			Name:         aws.ToString(b.Name),
			Key:          aws.ToString(b.Name),
			LastModified: aws.ToTime(b.CreationDate),
		})
	}
	return Page{Entries: entries}, nil
}

func (s *S3Store) HeadObject(ctx context.Context, bucket, key string) (ObjectMeta, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return ObjectMeta{}, classify("Head", bucket, key, err)
	}
	return ObjectMeta{
		Bucket:       bucket,
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: aws.ToTime(out.LastModified),
		ETag:         cleanETag(aws.ToString(out.ETag)),
		ContentType:  aws.ToString(out.ContentType),
	}, nil
}

func (s *S3Store) FetchPrefix(ctx context.Context, bucket, key string, maxBytes int64) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=0-%d", maxBytes-1)),
	})
	if err != nil {
		return nil, classify("Preview", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxBytes))
	if err != nil {
		return nil, classify("Preview", bucket, key, err)
	}
	return data, nil
}

func (s *S3Store) Download(ctx context.Context, bucket, key, path string, progress func(int64)) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return classify("Download", bucket, key, err)
	}
	defer out.Body.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return classifyLocal("Download", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return classifyLocal("Download", path, err)
	}
	defer f.Close()

	var written int64
	buf := make([]byte, 64*1024)
	for {
		n, readErr := out.Body.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				return classifyLocal("Download", path, err)
			}
			written += int64(n)
			if progress != nil {
				progress(written)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return classify("Download", bucket, key, readErr)
		}
	}

	if err := f.Close(); err != nil {
		return classifyLocal("Download", path, err)
	}
	s.log.Debug("download complete",
		zap.String("key", key), zap.Int64("bytes", written))
	return nil
}

func (s *S3Store) Upload(ctx context.Context, path, bucket, key string, progress func(int64)) error {
	f, err := os.Open(path)
	if err != nil {
		return classifyLocal("Upload", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return classifyLocal("Upload", path, err)
	}

	body := &progressReader{r: f, progress: progress}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return classify("Upload", bucket, key, err)
	}
	s.log.Debug("upload complete",
		zap.String("key", key), zap.Int64("bytes", info.Size()))
	return nil
}

func (s *S3Store) DeleteObject(ctx context.Context, bucket, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return classify("Delete", bucket, key, err)
	}
	s.log.Info("object deleted", zap.String("bucket", bucket), zap.String("key", key))
	return nil
}

// progressReader counts bytes flowing through Read. Seek is forwarded so
// the SDK can rewind the body for signing; the counter resets with it.
type progressReader struct {
	r        io.ReadSeeker
	read     int64
	progress func(int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		if p.progress != nil {
			p.progress(p.read)
		}
	}
	return n, err
}

func (p *progressReader) Seek(offset int64, whence int) (int64, error) {
	pos, err := p.r.Seek(offset, whence)
	if err == nil && offset == 0 && whence == io.SeekStart {
		p.read = 0
	}
	return pos, err
}

// cleanETag strips the quotes S3 puts around ETag values.
func cleanETag(etag string) string {
	if len(etag) >= 2 && etag[0] == '"' && etag[len(etag)-1] == '"' {
		return etag[1 : len(etag)-1]
	}
	return etag
}
