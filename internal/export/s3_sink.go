package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	missingBucketMessageConstant   = "export bucket is required"
	missingObjectClientMessage     = "export requires an object client"
	awsConfigurationErrorTemplate  = "unable to load AWS configuration: %w"
	putObjectErrorTemplateConstant = "upload s3://%s/%s: %w"
	artifactContentTypeConstant    = "application/json"
)

// ObjectPutter is the slice of the S3 API the sink uses.
type ObjectPutter interface {
	PutObject(executionContext context.Context, input *s3.PutObjectInput, optionFunctions ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Configuration locates the bucket artifacts are uploaded to. Static keys are
// optional; the default AWS credential chain applies when they are empty.
type S3Configuration struct {
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	Prefix          string `mapstructure:"prefix" yaml:"prefix"`
	Region          string `mapstructure:"region" yaml:"region"`
	EndpointURL     string `mapstructure:"endpoint_url" yaml:"endpoint_url" validate:"omitempty,url"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
}

// S3Sink uploads artifacts as objects under a key prefix.
type S3Sink struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewS3Sink builds a sink over an existing client.
func NewS3Sink(client ObjectPutter, bucket string, prefix string) (*S3Sink, error) {
	if client == nil {
		return nil, errors.New(missingObjectClientMessage)
	}
	trimmedBucket := strings.TrimSpace(bucket)
	if len(trimmedBucket) == 0 {
		return nil, errors.New(missingBucketMessageConstant)
	}
	return &S3Sink{client: client, bucket: trimmedBucket, prefix: strings.Trim(strings.TrimSpace(prefix), "/")}, nil
}

// OpenS3Sink builds an S3 client from configuration.
func OpenS3Sink(executionContext context.Context, configuration S3Configuration) (*S3Sink, error) {
	var loadOptions []func(*awsconfig.LoadOptions) error
	if len(configuration.Region) > 0 {
		loadOptions = append(loadOptions, awsconfig.WithRegion(configuration.Region))
	}
	if len(configuration.AccessKeyID) > 0 && len(configuration.SecretAccessKey) > 0 {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(configuration.AccessKeyID, configuration.SecretAccessKey, ""),
		))
	}
	awsConfiguration, loadError := awsconfig.LoadDefaultConfig(executionContext, loadOptions...)
	if loadError != nil {
		return nil, fmt.Errorf(awsConfigurationErrorTemplate, loadError)
	}

	client := s3.NewFromConfig(awsConfiguration, func(options *s3.Options) {
		if len(configuration.EndpointURL) > 0 {
			options.BaseEndpoint = aws.String(configuration.EndpointURL)
			options.UsePathStyle = true
		}
	})
	return NewS3Sink(client, configuration.Bucket, configuration.Prefix)
}

// Key returns the object key of an artifact name.
func (sink *S3Sink) Key(name string) string {
	if len(sink.prefix) == 0 {
		return name
	}
	return path.Join(sink.prefix, name)
}

// Write uploads the artifact, replacing any previous object.
func (sink *S3Sink) Write(executionContext context.Context, name string, content []byte) error {
	key := sink.Key(name)
	_, putError := sink.client.PutObject(executionContext, &s3.PutObjectInput{
		Bucket:        aws.String(sink.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(content),
		ContentLength: aws.Int64(int64(len(content))),
		ContentType:   aws.String(artifactContentTypeConstant),
	})
	if putError != nil {
		return fmt.Errorf(putObjectErrorTemplateConstant, sink.bucket, key, putError)
	}
	return nil
}
