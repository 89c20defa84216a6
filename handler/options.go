package handler

import (
	"fmt"
	"strings"

	"github.com/civimail/sesbounce/db"
)

type Options struct {
	QueueTableName        string
	BounceEventsTableName string
	ContactsTableName     string
	CategoriesTableName   string
	MailLocalpart         string
	VerpSeparator         string
}

// BouncePrefix is the local-part prefix ahead of the encoded token fields.
// CiviMail composes it from the configured localpart and the bounce verb.
func (opts *Options) BouncePrefix() string {
	return opts.MailLocalpart + "b"
}

func (opts *Options) TableNames() db.TableNames {
	return db.TableNames{
		Queue:      opts.QueueTableName,
		Events:     opts.BounceEventsTableName,
		Contacts:   opts.ContactsTableName,
		Categories: opts.CategoriesTableName,
	}
}

func GetOptions(getenv func(string) string) (*Options, error) {
	env := environment{getenv: getenv}
	return env.options()
}

type environment struct {
	getenv      func(string) string
	missingVars []string
}

func (env *environment) options() (*Options, error) {
	opts := Options{}
	env.assign(&opts.QueueTableName, "QUEUE_TABLE_NAME")
	env.assign(&opts.BounceEventsTableName, "BOUNCE_EVENTS_TABLE_NAME")
	env.assign(&opts.ContactsTableName, "CONTACTS_TABLE_NAME")
	env.assign(&opts.CategoriesTableName, "CATEGORIES_TABLE_NAME")
	env.assign(&opts.VerpSeparator, "VERP_SEPARATOR")

	// An empty localpart is a valid CiviMail configuration, so
	// MAIL_LOCALPART doesn't count as missing.
	opts.MailLocalpart = env.getenv("MAIL_LOCALPART")

	if len(env.missingVars) != 0 {
		return nil, fmt.Errorf(
			"undefined environment variables:\n  %s",
			strings.Join(env.missingVars, "\n  "),
		)
	}
	return &opts, nil
}

func (env *environment) assign(opt *string, varname string) {
	if value := env.getenv(varname); value == "" {
		env.missingVars = append(env.missingVars, varname)
	} else {
		*opt = value
	}
}
