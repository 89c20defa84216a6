package cmd

import (
	"github.com/spf13/cobra"
)

const sesbounceDesc = "Webhook processor recording SES bounce and " +
	"complaint notifications for CiviMail"
const sesbounceDescLong = sesbounceDesc + "\n\n" +
	`To create the DynamoDB tables backing the processor:
  sesbounce create-bounce-tables <TABLE_PREFIX>

To replay a captured SNS envelope against the deployed function:
  cat envelope.json | sesbounce ingest <LAMBDA_ARN>

or, resolving the function from its CloudFormation stack:
  cat envelope.json | sesbounce ingest --stack-name <STACK_NAME>
`

var rootCmd = &cobra.Command{
	Use:     "sesbounce",
	Version: "v0.1.0",
	Short:   sesbounceDesc,
	Long:    sesbounceDescLong,
}

func Execute() error {
	return rootCmd.Execute()
}
