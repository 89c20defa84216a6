//go:build small_tests || all_tests

package ops

import (
	"errors"
	"testing"

	"github.com/aws/smithy-go"
	"gotest.tools/assert"
)

func TestAwsError(t *testing.T) {
	t.Run("WrapsServerFaultsWithErrExternal", func(t *testing.T) {
		serverErr := &smithy.GenericAPIError{
			Message: "DynamoDB is on fire", Fault: smithy.FaultServer,
		}

		err := AwsError(serverErr)

		assert.Assert(t, errors.Is(err, ErrExternal))
		assert.ErrorContains(t, err, "DynamoDB is on fire")
	})

	t.Run("PassesClientFaultsThrough", func(t *testing.T) {
		clientErr := &smithy.GenericAPIError{
			Message: "no such table", Fault: smithy.FaultClient,
		}

		err := AwsError(clientErr)

		assert.Assert(t, !errors.Is(err, ErrExternal))
		assert.Equal(t, err, error(clientErr))
	})

	t.Run("PassesOtherErrorsThrough", func(t *testing.T) {
		otherErr := errors.New("not an API error")

		assert.Equal(t, otherErr, AwsError(otherErr))
	})
}
