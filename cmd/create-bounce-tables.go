package cmd

import (
	"context"
	"time"

	"github.com/civimail/sesbounce/db"
	"github.com/spf13/cobra"
)

const createBounceTablesDescription = `` +
	`Creates the DynamoDB tables backing the bounce processor.

Four tables are created from the given name prefix:

  <TABLE_PREFIX>-queue              queue entries from the originating mailer
  <TABLE_PREFIX>-bounce-events      recorded bounce and complaint events
  <TABLE_PREFIX>-contacts           contact opt-out flags
  <TABLE_PREFIX>-bounce-categories  category label to id mappings

The table names become the values of the QUEUE_TABLE_NAME,
BOUNCE_EVENTS_TABLE_NAME, CONTACTS_TABLE_NAME, and CATEGORIES_TABLE_NAME
environment variables used to configure and deploy the application.`

const maxTableWaitAttempts = 30

const tableWaitInterval = 2 * time.Second

func init() {
	rootCmd.AddCommand(newCreateBounceTablesCmd(NewDynamoDb))
}

func TableNamesFromPrefix(prefix string) db.TableNames {
	return db.TableNames{
		Queue:      prefix + "-queue",
		Events:     prefix + "-bounce-events",
		Contacts:   prefix + "-contacts",
		Categories: prefix + "-bounce-categories",
	}
}

func newCreateBounceTablesCmd(newDynDb DynamoDbFactoryFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "create-bounce-tables",
		Short: "Create the DynamoDB tables for bounce processing",
		Long:  createBounceTablesDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dynDb := newDynDb(TableNamesFromPrefix(args[0]))
			sleep := func() { time.Sleep(tableWaitInterval) }
			return createBounceTables(cmd, dynDb, sleep)
		},
	}
}

func createBounceTables(
	cmd *cobra.Command, dynDb *db.DynamoDb, sleep func(),
) (err error) {
	cmd.SilenceUsage = true
	ctx := context.Background()

	if err = dynDb.CreateTables(ctx, maxTableWaitAttempts, sleep); err == nil {
		tables := dynDb.Tables
		cmd.Printf("Successfully created DynamoDB tables: %s, %s, %s, %s\n",
			tables.Queue, tables.Events, tables.Contacts, tables.Categories)
	}
	return
}
