// Package email wraps the SES account-level operations the complaint path
// needs.
package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/civimail/sesbounce/ops"
)

// Suppressor wraps methods for the [SES account-level suppression list].
//
// [SES account-level suppression list]: https://docs.aws.amazon.com/ses/latest/dg/sending-email-suppression-list.html
type Suppressor interface {
	// Suppress adds an email address to the SES account-level suppression
	// list so SES stops accepting sends to it.
	Suppress(ctx context.Context, email string) error
}

type SesV2Api interface {
	PutSuppressedDestination(
		context.Context,
		*sesv2.PutSuppressedDestinationInput,
		...func(*sesv2.Options),
	) (*sesv2.PutSuppressedDestinationOutput, error)
}

type SesSuppressor struct {
	Client SesV2Api
}

func (mailer *SesSuppressor) Suppress(
	ctx context.Context, email string,
) error {
	input := &sesv2.PutSuppressedDestinationInput{
		EmailAddress: aws.String(email),
		Reason:       types.SuppressionListReasonComplaint,
	}

	_, err := mailer.Client.PutSuppressedDestination(ctx, input)

	if err != nil {
		err = fmt.Errorf("failed to suppress %s: %w", email, ops.AwsError(err))
	}
	return err
}
