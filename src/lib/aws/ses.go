package aws

import (
	"context"
	"fmt"
	"log"

	"vrober/src/lib"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

const sesCharset = "UTF-8"

func GetSESClient() *ses.Client {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Printf("Could not load default config: %s\n", err.Error())
		return nil
	}
	svc := ses.NewFromConfig(cfg)
	return svc
}

func sesSource(from, fromName string) string {
	if fromName == "" {
		return from
	}
	return fmt.Sprintf("%s <%s>", fromName, from)
}

// SESSendMail is the production half of the mailer duality; local runs
// deliver over SMTP instead. Booking confirmations and completion notices
// come through here.
func SESSendMail(input *lib.SendMailInput) error {
	content := &types.Content{Charset: aws.String(sesCharset), Data: aws.String(input.Body)}
	body := &types.Body{Text: content}
	if input.Html {
		body = &types.Body{Html: content}
	}
	in := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses:  input.To,
			CcAddresses:  input.Cc,
			BccAddresses: input.Bcc,
		},
		Source: aws.String(sesSource(input.From, input.FromName)),
		Message: &types.Message{
			Subject: &types.Content{Charset: aws.String(sesCharset), Data: aws.String(input.Subject)},
			Body:    body,
		},
	}
	if input.ReplyTo != "" {
		in.ReplyToAddresses = []string{input.ReplyTo}
	}
	c := GetSESClient()
	out, err := c.SendEmail(context.TODO(), in)
	if err != nil {
		log.Printf("Error sending email: %s\n", err.Error())
		return err
	}
	log.Printf("Sent email with id: %s\n", *out.MessageId)
	return nil
}
