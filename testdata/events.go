package testdata

// Test messages adapted from:
// https://docs.aws.amazon.com/ses/latest/dg/notification-examples.html

const CertUrl = "https://sns.us-east-1.amazonaws.com/" +
	"SimpleNotificationService-0123456789abcdef.pem"

const TopicArn = "arn:aws:sns:us-east-1:123456789012:ses-bounces"

// VerpSource is the envelope sender of the original outgoing message, with
// the job id, queue id, and hash of the queue entry encoded in the local
// part.
const VerpSource = "b.13.6.1d49c3d4f888d58a@example.org"

const BounceHeader = "b.13.6.1d49c3d4f888d58a@example.org"

const MailJson = `
  "mail": {
    "timestamp": "2023-05-27T13:42:10.000Z",
    "source": "` + VerpSource + `",
    "messageId": "EXAMPLE7c191be45",
    "destination": [ "recipient@example.com" ],
    "headers": [
      { "name": "From", "value": "newsletter@example.org" },
      { "name": "To", "value": "recipient@example.com" },
      { "name": "Subject", "value": "May newsletter" },
      { "name": "X-CiviMail-Bounce", "value": "` + BounceHeader + `" }
    ],
    "commonHeaders": {
      "from": [ "newsletter@example.org" ],
      "to": [ "recipient@example.com" ],
      "subject": "May newsletter"
    }
  }
`

const PermanentBounceJson = `
  {
    "notificationType": "Bounce",
    ` + MailJson + `,
    "bounce": {
      "bounceType": "Permanent",
      "bounceSubType": "General",
      "bouncedRecipients": [
        {
          "emailAddress": "recipient@example.com",
          "action": "failed",
          "status": "5.1.1",
          "diagnosticCode": "smtp; 550 5.1.1 user unknown"
        }
      ],
      "timestamp": "2023-05-27T13:42:11.000Z",
      "feedbackId": "0100018EXAMPLE-bounce"
    }
  }
`

const TransientBounceJson = `
  {
    "notificationType": "Bounce",
    ` + MailJson + `,
    "bounce": {
      "bounceType": "Transient",
      "bounceSubType": "MailboxFull",
      "bouncedRecipients": [
        {
          "emailAddress": "recipient@example.com",
          "action": "delayed",
          "status": "4.2.2"
        }
      ],
      "timestamp": "2023-05-27T13:42:11.000Z",
      "feedbackId": "0100018EXAMPLE-bounce"
    }
  }
`

const ComplaintJson = `
  {
    "notificationType": "Complaint",
    ` + MailJson + `,
    "complaint": {
      "complainedRecipients": [
        { "emailAddress": "recipient@example.com" }
      ],
      "complaintFeedbackType": "abuse",
      "userAgent": "ExampleCorp Feedback Loop (V0.01)",
      "timestamp": "2023-05-27T13:42:11.000Z",
      "feedbackId": "0100018EXAMPLE-complaint"
    }
  }
`

const DeliveryJson = `
  {
    "notificationType": "Delivery",
    ` + MailJson + `,
    "delivery": {
      "timestamp": "2023-05-27T13:42:11.000Z",
      "recipients": [ "recipient@example.com" ],
      "smtpResponse": "250 2.0.0 OK"
    }
  }
`
