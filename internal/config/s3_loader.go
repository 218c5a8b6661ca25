package config

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures loading secrets from S3
// When Enabled=true: load from S3, fallback to YAML if unavailable
// When Enabled=false: use YAML only, skip S3 completely
type S3Config struct {
	Enabled  bool   `yaml:"enabled" env:"S3_ENABLED"`
	Bucket   string `yaml:"bucket" env:"S3_BUCKET"`
	Key      string `yaml:"key" env:"S3_KEY"`           // e.g. "secrets/bot.json"
	Endpoint string `yaml:"endpoint" env:"S3_ENDPOINT"` // S3-compatible endpoint URL
	Region   string `yaml:"region" env:"S3_REGION"`     // S3 region
	Profile  string `yaml:"profile" env:"S3_PROFILE"`   // AWS CLI profile name
}

// Secrets is the JSON document stored in S3
type Secrets struct {
	BotToken    string `json:"bot_token"`
	SecretToken string `json:"secret_token"`
}

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Loader loads secrets from S3
type S3Loader struct {
	client objectGetter
	bucket string
	key    string
}

// NewS3Loader creates a new S3 secrets loader
func NewS3Loader(ctx context.Context, cfg S3Config) (*S3Loader, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("s3 loading is disabled")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	// Use profile if specified
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	// Create S3 client with custom endpoint
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	key := cfg.Key
	if key == "" {
		key = "secrets/bot.json"
	}

	return &S3Loader{
		client: client,
		bucket: cfg.Bucket,
		key:    key,
	}, nil
}

// Load fetches and decodes the secrets object
func (l *S3Loader) Load(ctx context.Context) (*Secrets, error) {
	data, err := l.fetchObject(ctx, l.key)
	if err != nil {
		return nil, fmt.Errorf("fetch s3://%s/%s: %w", l.bucket, l.key, err)
	}

	var s Secrets
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse s3://%s/%s: %w", l.bucket, l.key, err)
	}
	return &s, nil
}

// fetchObject downloads an object from S3
func (l *S3Loader) fetchObject(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = result.Body.Close() }()

	return io.ReadAll(result.Body)
}
