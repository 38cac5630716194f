package common

import (
	"context"
	"log"
	"time"

	"vrober/src/config"
	"vrober/src/db"
	"vrober/src/lib"
	awslib "vrober/src/lib/aws"
	"vrober/src/models"
	"vrober/src/types"
	"vrober/src/utils"

	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

// unwrapQueueMessage peels the SNS envelope off SQS deliveries. Kafka
// messages arrive bare.
func unwrapQueueMessage(body string) string {
	if inner := gjson.Get(body, "Message"); inner.Exists() {
		return inner.String()
	}
	return body
}

func consume(name string, handler types.Handler) {
	qname := utils.WithSuffix(name)
	if config.API_ENV == string(types.Production) {
		c := awslib.NewSQSConsumer(qname, handler)
		c.Listen()
		return
	}
	lib.KafkaConsumeTopic(name, qname, handler)
}

// BookingEventsConsumer applies the booking-count increment for new
// bookings. Best effort: a failed increment is logged and dropped, the
// booking itself is already committed.
func BookingEventsConsumer() {
	consume("BookingEvents", func(body string) {
		msg := unwrapQueueMessage(body)
		if !gjson.Valid(msg) {
			log.Println("[BookingEvents] Received invalid json body. Aborting")
			return
		}
		serviceId := uint(gjson.Get(msg, "service_id").Uint())
		bookingId := uint(gjson.Get(msg, "booking_id").Uint())
		if serviceId == 0 {
			log.Printf("[BookingEvents] Missing service id for booking %d\n", bookingId)
			return
		}
		gdb := db.GetDb()
		err := gdb.
			Model(&models.Service{}).
			Where("id = ?", serviceId).
			UpdateColumn("booking_count", gorm.Expr("booking_count + ?", 1)).
			Error
		if err != nil {
			log.Printf("[BookingEvents] Error incrementing count for service %d: %s\n", serviceId, err.Error())
		}
	})
}

// PaymentChecksConsumer runs the deferred reconciliation jobs scheduled at
// order creation.
func PaymentChecksConsumer() {
	consume("PaymentChecks", func(body string) {
		msg := unwrapQueueMessage(body)
		if !gjson.Valid(msg) {
			log.Println("[PaymentChecks] Received invalid json body. Aborting")
			return
		}
		orderID := gjson.Get(msg, "order_id").String()
		if orderID == "" {
			log.Println("[PaymentChecks] Missing order id. Aborting")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := ReconcileOrder(ctx, orderID); err != nil {
			log.Printf("[PaymentChecks] Error reconciling order %s: %s\n", orderID, err.Error())
			return
		}

		payloadId := gjson.Get(msg, "payloadId").String()
		if payloadId == "" {
			return
		}
		gdb := db.GetDb()
		err := gdb.
			Model(&models.JobTask{}).
			Where("payload_id = ?", payloadId).
			Updates(map[string]any{"status": "done"}).
			Error
		if err != nil {
			log.Printf("[PaymentChecks] Error updating job status: %s\n", err.Error())
		}
	})
}

// EmailsConsumer drains the mailer queue. SMTP locally, SES in production.
func EmailsConsumer() {
	consume("Emails", func(body string) {
		msg := unwrapQueueMessage(body)
		if !gjson.Valid(msg) {
			log.Println("[Emails] Received invalid json body. Aborting")
			return
		}
		var to []string
		for _, r := range gjson.Get(msg, "to").Array() {
			to = append(to, r.String())
		}
		if len(to) == 0 {
			log.Println("[Emails] No recipients. Aborting")
			return
		}
		input := &lib.SendMailInput{
			From:     gjson.Get(msg, "from").String(),
			FromName: gjson.Get(msg, "from-name").String(),
			To:       to,
			Subject:  gjson.Get(msg, "subject").String(),
			Body:     gjson.Get(msg, "body").String(),
			Html:     gjson.Get(msg, "html").Bool(),
		}
		var err error
		if config.API_ENV == string(types.Production) {
			err = awslib.SESSendMail(input)
		} else {
			err = lib.SendMail(input)
		}
		if err != nil {
			log.Printf("[Emails] Error sending mail: %s\n", err.Error())
		}
	})
}
