package store

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"snapkeep/internal/snap"
)

// S3Store keeps archives as objects under a key prefix in an S3 bucket.
// S3 has no rename, so Rename is copy-then-delete; a crash between the two
// calls leaves a duplicate under the old name, which a later run evicts.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// S3Options configures an S3Store. AccessKey/SecretKey are optional; when
// empty the default AWS credential chain is used.
type S3Options struct {
	Bucket    string
	Prefix    string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3Store creates an S3-backed archive store.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 store requires a bucket")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   opts.Bucket,
		prefix:   normalizePrefix(opts.Prefix),
	}, nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return prefix
}

func (s *S3Store) key(name string) string { return s.prefix + name }

// List returns the names of all objects under the prefix.
func (s *S3Store) List() ([]string, error) {
	var names []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(context.Background())
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			// Skip anything nested below the prefix; the store is flat.
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			names = append(names, name)
		}
	}
	return names, nil
}

// Create opens a writer streaming to a multipart upload. The object becomes
// visible only when the upload completes on Close.
func (s *S3Store) Create(name string) (io.WriteCloser, error) {
	pr, pw := io.Pipe()
	u := &s3Upload{pw: pw}
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		_, err := s.uploader.Upload(context.Background(), &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(name)),
			Body:   pr,
		})
		if err != nil {
			u.err = fmt.Errorf("uploading %s: %w", name, err)
			pr.CloseWithError(err)
			return
		}
		pr.Close()
	}()
	return u, nil
}

// Open returns a reader for an existing object.
func (s *S3Store) Open(name string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", name, err)
	}
	return out.Body, nil
}

// Rename copies the object to its new key, then deletes the old one.
// The old object is only removed after the copy succeeds, so a failure here
// never loses the archive.
func (s *S3Store) Rename(oldName, newName string) error {
	ctx := context.Background()
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		CopySource: aws.String(s.bucket + "/" + s.key(oldName)),
		Key:        aws.String(s.key(newName)),
	})
	if err != nil {
		return fmt.Errorf("copying %s to %s: %w", oldName, newName, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(oldName)),
	})
	if err != nil {
		return fmt.Errorf("deleting %s after copy: %w", oldName, err)
	}
	return nil
}

// Remove deletes an object.
func (s *S3Store) Remove(name string) error {
	_, err := s.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return fmt.Errorf("removing %s: %w", name, err)
	}
	return nil
}

// ValidateSetup verifies the bucket is reachable with the configured
// credentials.
func (s *S3Store) ValidateSetup() error {
	_, err := s.client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket not accessible: %w", err)
	}
	return nil
}

// s3Upload adapts an in-flight uploader to io.WriteCloser.
type s3Upload struct {
	pw  *io.PipeWriter
	wg  sync.WaitGroup
	err error
}

func (u *s3Upload) Write(p []byte) (int, error) { return u.pw.Write(p) }

func (u *s3Upload) Close() error {
	u.pw.Close()
	u.wg.Wait()
	return u.err
}

// Compile-time check that S3Store implements snap.ArchiveStore
var _ snap.ArchiveStore = (*S3Store)(nil)
