package cloudwatch

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
)

// NewLogsClient creates a new CloudWatch Logs client with the specified profile and region.
func NewLogsClient(ctx context.Context, profile, region string) (*cloudwatchlogs.Client, string, error) {
	cfg, err := loadAWSConfig(ctx, profile, region)
	if err != nil {
		return nil, "", err
	}
	return cloudwatchlogs.NewFromConfig(cfg), cfg.Region, nil
}

// loadAWSConfig loads the AWS configuration with optional profile and region.
func loadAWSConfig(ctx context.Context, profile, region string) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error

	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return cfg, nil
}
