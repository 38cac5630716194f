package lib

import (
	"log"
	"os"

	"github.com/pusher/pusher-http-go/v5"
)

var pusherClient *pusher.Client

func GetPusherClient() *pusher.Client {
	if pusherClient != nil {
		return pusherClient
	}
	pusherClient = &pusher.Client{
		AppID:   os.Getenv("PUSHER_APP_ID"),
		Key:     os.Getenv("PUSHER_KEY"),
		Secret:  os.Getenv("PUSHER_SECRET"),
		Cluster: os.Getenv("PUSHER_CLUSTER"),
	}
	return pusherClient
}

// PusherTriggerBookingUpdate notifies the admin dashboard of a booking
// status change. Best effort.
func PusherTriggerBookingUpdate(bookingID uint, status string) {
	client := GetPusherClient()
	err := client.Trigger("bookings", "status-changed", map[string]any{
		"id":     bookingID,
		"status": status,
	})
	if err != nil {
		log.Printf("[pusher] Error triggering event: %s\n", err.Error())
	}
}
