package sns

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"
)

// ConfirmTimeout bounds the outbound confirmation request. SNS redelivers
// unanswered confirmations on its own schedule, so timing out here is a soft
// failure.
const ConfirmTimeout = 2 * time.Second

// Confirmer completes an SNS topic (un)subscription handshake by requesting
// the SubscribeURL from the confirmation envelope.
//
// https://docs.aws.amazon.com/sns/latest/dg/SendMessageToHttp.prepare.html
type Confirmer struct {
	Client *http.Client
	Log    *log.Logger
}

func NewConfirmer(logger *log.Logger) *Confirmer {
	return &Confirmer{
		Client: &http.Client{Timeout: ConfirmTimeout},
		Log:    logger,
	}
}

// Confirm issues a single POST to the envelope's SubscribeURL. Errors are
// logged and swallowed; the notification pipeline terminates either way.
func (c *Confirmer) Confirm(ctx context.Context, env *Envelope) {
	if err := c.confirm(ctx, env); err != nil {
		c.Log.Printf("error confirming subscription to %s: %s",
			env.TopicArn, err)
	} else {
		c.Log.Printf("confirmed subscription to %s", env.TopicArn)
	}
}

func (c *Confirmer) confirm(ctx context.Context, env *Envelope) error {
	if env.SubscribeURL == "" {
		return fmt.Errorf("envelope has no SubscribeURL")
	} else if u, err := url.Parse(env.SubscribeURL); err != nil {
		return fmt.Errorf("bad SubscribeURL %q: %s", env.SubscribeURL, err)
	} else if u.Scheme != "https" {
		return fmt.Errorf("SubscribeURL %q is not https", env.SubscribeURL)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, env.SubscribeURL, nil,
	)
	if err != nil {
		return err
	}
	res, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("confirmation returned %s", res.Status)
	}
	return nil
}
