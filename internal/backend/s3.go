package backend

import (
	"bytes"
	"context"
	"errors"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"innerfs/internal/core"
)

// S3Backend stores each object as a key under basePath inside bucket. The
// teacher repo carried the aws-sdk-go-v2 dependency family with an S3
// vault commented in but never implemented; this wires it for real.
type S3Backend struct {
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
	bucket     string
	basePath   string
}

// S3Config names the subset of connection parameters a backend needs.
// Region/credentials resolution otherwise follows the default AWS SDK
// chain (env vars, shared config, IMDS).
type S3Config struct {
	Bucket   string
	BasePath string
	Region   string
	Endpoint string
}

func NewS3Backend(ctx context.Context, cfg S3Config) (*S3Backend, error) {
	if cfg.Bucket == "" {
		return nil, core.NewError(core.KindIncompatibleConfig, "s3.new", "", errors.New("bucket is required"))
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, core.NewError(core.KindBackendIO, "s3.new", "", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = &cfg.Endpoint
		}
	})
	return &S3Backend{
		client:     client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
		bucket:     cfg.Bucket,
		basePath:   cfg.BasePath,
	}, nil
}

func (b *S3Backend) key(name string) string {
	if b.basePath == "" {
		return name
	}
	return b.basePath + "/" + name
}

func (b *S3Backend) Put(name string, data []byte) error {
	ctx := context.Background()
	_, err := b.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: &b.bucket,
		Key:    awsString(b.key(name)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return core.NewError(core.KindBackendIO, "s3.put", name, err)
	}
	return nil
}

func (b *S3Backend) Get(name string) ([]byte, error) {
	ctx := context.Background()
	buf := manager.NewWriteAtBuffer(nil)
	_, err := b.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: &b.bucket,
		Key:    awsString(b.key(name)),
	})
	if err != nil {
		var nf *s3types.NoSuchKey
		if errors.As(err, &nf) {
			return nil, core.NewError(core.KindNoEntry, "s3.get", name, err)
		}
		return nil, core.NewError(core.KindBackendIO, "s3.get", name, err)
	}
	return buf.Bytes(), nil
}

func (b *S3Backend) Delete(name string) error {
	ctx := context.Background()
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &b.bucket,
		Key:    awsString(b.key(name)),
	})
	if err != nil {
		return core.NewError(core.KindBackendIO, "s3.delete", name, err)
	}
	return nil
}

func (b *S3Backend) Exists(name string) (bool, error) {
	ctx := context.Background()
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &b.bucket,
		Key:    awsString(b.key(name)),
	})
	if err != nil {
		var nf *s3types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, core.NewError(core.KindBackendIO, "s3.exists", name, err)
	}
	return true, nil
}

func (b *S3Backend) List() (core.NameIterator, error) {
	ctx := context.Background()
	var names []string
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: &b.bucket,
		Prefix: awsString(b.key("")),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, core.NewError(core.KindBackendIO, "s3.list", b.bucket, err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				names = append(names, strings.TrimPrefix(*obj.Key, b.key("")))
			}
		}
	}
	return core.NewSliceNameIterator(names), nil
}

func (b *S3Backend) FreeBytes() (int64, bool) { return 0, false }

func awsString(s string) *string { return &s }
