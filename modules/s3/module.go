package s3

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/specialistvlad/transformgrid/internal/ctxlog"
	"github.com/specialistvlad/transformgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
// HTTPClient and Credentials replace the SDK defaults when set.
type Module struct {
	HTTPClient  aws.HTTPClient
	Credentials aws.CredentialsProvider
}

// Input defines the arguments for the s3 action.
type Input struct {
	Bucket string `hcl:"bucket"`
	// Prefix is prepended to every object key.
	Prefix string `hcl:"prefix,optional"`
	// Region defaults to us-east-1.
	Region string `hcl:"region,optional"`
	// Endpoint selects an S3-compatible backend such as MinIO.
	Endpoint  string `hcl:"endpoint,optional"`
	PathStyle bool   `hcl:"path_style,optional"`
}

func (m *Module) client(ctx context.Context, input *Input) (*s3.Client, error) {
	region := input.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if m.Credentials != nil {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(m.Credentials))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = input.PathStyle
		if input.Endpoint != "" {
			o.BaseEndpoint = aws.String(input.Endpoint)
		}
		if m.HTTPClient != nil {
			o.HTTPClient = m.HTTPClient
		}
	}), nil
}

// objectKey joins prefix and the file's base name with exactly one slash.
func objectKey(prefix, file string) string {
	if prefix == "" {
		return filepath.Base(file)
	}
	return path.Join(strings.TrimPrefix(prefix, "/"), filepath.Base(file))
}

// Run uploads every input file to the bucket and passes the files through
// unchanged.
func (m *Module) Run(ctx context.Context, input *Input, req *registry.Request) ([]string, error) {
	logger := ctxlog.FromContext(ctx).With("bucket", input.Bucket)
	if input.Bucket == "" {
		return nil, fmt.Errorf("bucket must not be empty")
	}
	client, err := m.client(ctx, input)
	if err != nil {
		return nil, err
	}

	for _, f := range req.Files {
		key := objectKey(input.Prefix, f)
		if err := upload(ctx, client, input.Bucket, key, f); err != nil {
			return nil, fmt.Errorf("uploading %s to s3://%s/%s: %w", filepath.Base(f), input.Bucket, key, err)
		}
		logger.Debug("Object uploaded.", "key", key)
	}
	return req.Files, nil
}

func upload(ctx context.Context, client *s3.Client, bucket, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(file))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	return err
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("s3", &registry.RegisteredAction{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        m.Run,
	})
}
