package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type DynamoOptions struct {
	Region   string
	Endpoint string // non-empty for dynamodb-local
	LoadTO   time.Duration
}

// OpenDynamo builds the DynamoDB client from the ambient AWS config. The
// client is constructed once at startup and injected into the store.
func OpenDynamo(ctx context.Context, opt DynamoOptions) (*dynamodb.Client, error) {
	if opt.LoadTO == 0 {
		opt.LoadTO = 5 * time.Second
	}

	cctx, cancel := context.WithTimeout(ctx, opt.LoadTO)
	defer cancel()

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opt.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opt.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(cctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if opt.Endpoint != "" {
			o.BaseEndpoint = aws.String(opt.Endpoint)
		}
	})
	return client, nil
}
