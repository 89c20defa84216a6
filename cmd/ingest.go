package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	ltypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/civimail/sesbounce/sns"
	"github.com/spf13/cobra"
)

const ingestDescription = `` +
	`Replays a captured SNS envelope against the deployed bounce function.

Reads an SNS envelope JSON document from standard input, invokes the function
with it directly, and reports the outcome. Useful for smoke testing a
deployment with an envelope captured from the endpoint's logs.

Takes the ARN of the Lambda function to invoke as its one argument, or looks
the ARN up from the CloudFormation stack outputs when --stack-name is given
instead.`

func init() {
	rootCmd.AddCommand(newIngestCmd(NewLambdaClient, NewCloudFormationClient))
}

func newIngestCmd(
	newClient LambdaClientFactoryFunc, newCfc CloudFormationClientFactoryFunc,
) (cmd *cobra.Command) {
	cmd = &cobra.Command{
		Use:   "ingest [LAMBDA_ARN]",
		Short: "Replay an SNS envelope against the deployed function",
		Long:  ingestDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ingestEnvelope(cmd, newClient, newCfc, args)
		},
	}
	registerStackName(cmd)
	return
}

func ingestEnvelope(
	cmd *cobra.Command,
	newClient LambdaClientFactoryFunc,
	newCfc CloudFormationClientFactoryFunc,
	args []string,
) (err error) {
	cmd.SilenceUsage = true
	ctx := context.Background()
	var lambdaArn string

	if len(args) == 1 {
		lambdaArn = args[0]
	} else if stackName := getStackName(cmd); stackName == "" {
		err = fmt.Errorf("specify either LAMBDA_ARN or --%s", FlagStackName)
		return
	} else if lambdaArn, err = GetLambdaArn(ctx, newCfc(), stackName); err != nil {
		return
	}

	env, payload, err := readEnvelope(cmd.InOrStdin())
	if err != nil {
		return
	}

	input := &lambda.InvokeInput{
		FunctionName: aws.String(lambdaArn),
		LogType:      ltypes.LogTypeTail,
		Payload:      payload,
	}
	var output *lambda.InvokeOutput

	// https://pkg.go.dev/github.com/aws/aws-sdk-go-v2/service/lambda#Client.Invoke
	// https://docs.aws.amazon.com/lambda/latest/dg/invocation-sync.html
	if output, err = newClient().Invoke(ctx, input); err != nil {
		err = fmt.Errorf("error invoking Lambda function: %s", err)
	} else if output.StatusCode != http.StatusOK {
		const errFmt = "received non-200 response: %s"
		err = fmt.Errorf(errFmt, http.StatusText(int(output.StatusCode)))
	} else if output.FunctionError != nil {
		const errFmt = "error executing Lambda function: %s: %s"
		funcErr := aws.ToString(output.FunctionError)
		err = fmt.Errorf(errFmt, funcErr, string(output.Payload))
	} else {
		const successFmt = "Function processed the %s envelope for message %s.\n"
		cmd.Printf(successFmt, env.Type, env.MessageId)
	}
	return
}

// readEnvelope checks stdin holds a parseable envelope before invoking, to
// catch copy and paste mistakes locally instead of in the function's logs.
func readEnvelope(
	stdin io.Reader,
) (env *sns.Envelope, payload []byte, err error) {
	if payload, err = io.ReadAll(stdin); err != nil {
		err = fmt.Errorf("failed to read envelope from stdin: %s", err)
	} else if env, err = sns.ParseEnvelope(payload); err != nil {
		payload = nil
	}
	return
}
