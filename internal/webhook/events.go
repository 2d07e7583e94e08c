// webhook/events.go
package webhook

import (
	"encoding/json"
	"fmt"
)

// Operation is the change type reported for an entity.
type Operation string

// Operations QuickBooks reports.
const (
	OpCreate Operation = "Create"
	OpUpdate Operation = "Update"
	OpDelete Operation = "Delete"
	OpMerge  Operation = "Merge"
	OpVoid   Operation = "Void"
)

// Entity is one changed object inside a notification.
type Entity struct {
	Name      string    `json:"name"`
	Operation Operation `json:"operation"`
	ID        string    `json:"id"`
}

// Event is the per-realm change notification: an ordered sequence of
// entity changes.
type Event struct {
	RealmID  string
	Entities []Entity
}

// payload mirrors the provider's wire format.
type payload struct {
	EventNotifications []struct {
		RealmID         string `json:"realmId"`
		DataChangeEvent struct {
			Entities []Entity `json:"entities"`
		} `json:"dataChangeEvent"`
	} `json:"eventNotifications"`
}

// ParseEvents parses a verified webhook body into events. Only call this
// after Verify succeeds; a parse failure here is a malformed payload, not
// an authentication failure.
func ParseEvents(rawBody []byte) ([]Event, error) {
	var p payload
	if err := json.Unmarshal(rawBody, &p); err != nil {
		return nil, fmt.Errorf("webhook: malformed payload: %w", err)
	}

	events := make([]Event, 0, len(p.EventNotifications))
	for _, n := range p.EventNotifications {
		events = append(events, Event{
			RealmID:  n.RealmID,
			Entities: n.DataChangeEvent.Entities,
		})
	}
	return events, nil
}
