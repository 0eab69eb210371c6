package ws

import (
	"encoding/json"

	"github.com/periskope/chat/internal/domain"
)

// HubNotifier publishes committed message rows to realtime subscribers.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

// NotifyInsert broadcasts the row to every "messages" subscriber, unfiltered.
// Clients decide which rows belong to the conversation they show.
func (n *HubNotifier) NotifyInsert(msg *domain.Message) {
	record, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("notifier: marshal error: %v", err)
		return
	}
	evt, err := NewEvent(EventTypeChange, ChangePayload{
		Table:  TableMessages,
		Event:  ChangeInsert,
		Record: record,
	})
	if err != nil {
		log.Errorf("notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastChange(TableMessages, ChangeInsert, evt)
}
