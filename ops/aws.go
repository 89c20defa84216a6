package ops

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/smithy-go"
)

// AwsError wraps err with ErrExternal if it's a server side error.
//
// Inspired by:
// https://aws.github.io/aws-sdk-go-v2/docs/handling-errors/#api-error-responses
func AwsError(err error) error {
	var apiErr smithy.APIError

	if errors.As(err, &apiErr) && apiErr.ErrorFault() == smithy.FaultServer {
		return fmt.Errorf("%w: %w", ErrExternal, err)
	}
	return err
}

// MustLoadDefaultAwsConfig loads the default AWS configuration or dies trying.
func MustLoadDefaultAwsConfig() aws.Config {
	cfg, err := config.LoadDefaultConfig(context.Background())

	if err != nil {
		log.Fatalf("failed to load AWS configuration: %s", err)
	}
	return cfg
}
