package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/civimail/sesbounce/agent"
	"github.com/civimail/sesbounce/bounce"
	"github.com/civimail/sesbounce/db"
	"github.com/civimail/sesbounce/email"
	"github.com/civimail/sesbounce/handler"
	"github.com/civimail/sesbounce/sns"
	"github.com/google/uuid"
)

func buildHandler() (h *handler.LambdaHandler, err error) {
	var cfg aws.Config
	var opts *handler.Options

	if cfg, err = config.LoadDefaultConfig(context.Background()); err != nil {
		return
	} else if opts, err = handler.GetOptions(os.Getenv); err != nil {
		return
	}

	dynDb := db.NewDynamoDb(cfg, opts.TableNames())
	h = &handler.LambdaHandler{
		Verifier: sns.NewVerifier(
			&sns.HttpCertFetcher{Client: http.DefaultClient}, log.Default(),
		),
		Confirmer: sns.NewConfirmer(log.Default()),
		Registry:  dynDb,
		Agent: &agent.ProdAgent{
			Registry:   dynDb,
			Categories: bounce.NewCategories(dynDb),
			Events:     dynDb,
			Contacts:   dynDb,
			Suppressor: &email.SesSuppressor{
				Client: sesv2.NewFromConfig(cfg),
			},
			NewEventId:  uuid.New,
			CurrentTime: time.Now,
			Log:         log.Default(),
		},
		BouncePrefix: opts.BouncePrefix(),
		Separator:    opts.VerpSeparator,
		Log:          log.Default(),
	}
	return
}

func main() {
	// Disable standard logger flags. The CloudWatch logs show that the Lambda
	// runtime already adds a timestamp at the beginning of every log line
	// emitted by the function.
	log.SetFlags(0)

	if h, err := buildHandler(); err != nil {
		log.Fatalf("Failed to initialize process: %s", err.Error())
	} else {
		lambda.Start(h.HandleEvent)
	}
}
