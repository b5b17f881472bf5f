package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const defaultS3Region = "us-east-1"

// S3Config holds the optional S3 client overrides. Credentials always come
// from the default AWS chain (env, shared config, instance role).
type S3Config struct {
	Region    string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"` // e.g. MinIO
	PathStyle bool   `json:"path_style,omitempty" yaml:"path_style,omitempty"`
}

// S3ConfigFromEnv reads CELLEVAL_S3_REGION, CELLEVAL_S3_ENDPOINT and CELLEVAL_S3_PATH_STYLE.
func S3ConfigFromEnv() S3Config {
	return S3Config{
		Region:    os.Getenv("CELLEVAL_S3_REGION"),
		Endpoint:  os.Getenv("CELLEVAL_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("CELLEVAL_S3_PATH_STYLE"), "true"),
	}
}

func openS3(ctx context.Context, bucket, key string, cfg S3Config) (io.ReadCloser, error) {
	region := cfg.Region
	if region == "" {
		region = defaultS3Region
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}
