package cmd

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/civimail/sesbounce/db"
	"github.com/civimail/sesbounce/ops"
)

var AwsConfig aws.Config = ops.MustLoadDefaultAwsConfig()

type DynamoDbFactoryFunc func(tables db.TableNames) *db.DynamoDb

func NewDynamoDb(tables db.TableNames) *db.DynamoDb {
	return db.NewDynamoDb(AwsConfig, tables)
}

type LambdaClient interface {
	Invoke(
		context.Context,
		*lambda.InvokeInput,
		...func(*lambda.Options),
	) (*lambda.InvokeOutput, error)
}

type LambdaClientFactoryFunc func() LambdaClient

func NewLambdaClient() LambdaClient {
	return lambda.NewFromConfig(AwsConfig)
}

type CloudFormationClient interface {
	DescribeStacks(
		context.Context,
		*cloudformation.DescribeStacksInput,
		...func(*cloudformation.Options),
	) (*cloudformation.DescribeStacksOutput, error)
}

type CloudFormationClientFactoryFunc func() CloudFormationClient

func NewCloudFormationClient() CloudFormationClient {
	return cloudformation.NewFromConfig(AwsConfig)
}

// FunctionArnKey is the output key of the deployed bounce function's ARN in
// the application's CloudFormation stack.
const FunctionArnKey = "BounceFunctionArn"

func GetLambdaArn(
	ctx context.Context, cfc CloudFormationClient, stackName string,
) (arn string, err error) {
	input := &cloudformation.DescribeStacksInput{StackName: &stackName}
	output, descErr := cfc.DescribeStacks(ctx, input)

	if descErr != nil {
		err = fmt.Errorf("failed to get Lambda ARN for %s: %w",
			stackName, ops.AwsError(descErr))
	} else if len(output.Stacks) == 0 {
		err = fmt.Errorf("stack not found: %s", stackName)
	} else {
		for _, stackOutput := range output.Stacks[0].Outputs {
			if aws.ToString(stackOutput.OutputKey) == FunctionArnKey {
				arn = aws.ToString(stackOutput.OutputValue)
				return
			}
		}
		err = fmt.Errorf(`stack "%s" doesn't contain output key "%s"`,
			stackName, FunctionArnKey)
	}
	return
}
