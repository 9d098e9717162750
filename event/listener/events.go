package listener

import (
	"log"

	"chat-service/event"
)

var (
	EventsChannel = make(chan event.ChannelData)
)

// Events drains the events queue so the service can also act as its own
// consumer during development.
func Events() {
	for data := range EventsChannel {
		log.Printf("event consumed: %s (%d bytes)", data.Action, len(data.Data))
	}
}
