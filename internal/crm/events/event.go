package events

import (
	"context"
	"encoding/json"
)

// Boards that emit change events.
const (
	BoardLeads   = "leads"
	BoardClients = "active_clients"
	BoardDropped = "dropped_clients"
)

const EventBoardChange = "board_change"

// Event is one Server-Sent Event.
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// BoardChange is the payload of a board_change event.
type BoardChange struct {
	Board  string `json:"board"`
	ID     string `json:"id"`
	Action string `json:"action"`
}

func NewBoardChange(board, id, action string) Event {
	data, _ := json.Marshal(BoardChange{Board: board, ID: id, Action: action})
	return Event{EventType: EventBoardChange, Data: string(data)}
}

// Publisher delivers events to connected dashboards.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
