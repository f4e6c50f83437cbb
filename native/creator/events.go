package creator

import (
	"strconv"

	"tipfinity/core/events"
	"tipfinity/core/types"
	"tipfinity/crypto"
)

const (
	// EventTypeCreatorRegistered is emitted when a creator record is created.
	EventTypeCreatorRegistered = "creator.registered"
	// EventTypeTipRecorded is emitted once per committed tip.
	EventTypeTipRecorded = "creator.tip.recorded"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

// CreatorRegisteredEvent announces a new creator record.
func CreatorRegisteredEvent(record [20]byte, c *Creator) *types.Event {
	return &types.Event{
		Type: EventTypeCreatorRegistered,
		Attributes: map[string]string{
			"creator":  crypto.FormatAddress(record),
			"owner":    crypto.FormatAddress(c.Owner),
			"username": c.UsernameString(),
		},
	}
}

// TipRecordedEvent carries {creatorWallet, tipper, amount, annotation} plus
// the record addresses needed to look the tip up.
func TipRecordedEvent(wallet [20]byte, tipAddr [20]byte, tip *TipRecord) *types.Event {
	return &types.Event{
		Type: EventTypeTipRecorded,
		Attributes: map[string]string{
			"creatorWallet": crypto.FormatAddress(wallet),
			"tipper":        crypto.FormatAddress(tip.Tipper),
			"amount":        strconv.FormatUint(tip.Amount, 10),
			"annotation":    string(tip.Annotation),
			"creator":       crypto.FormatAddress(tip.Creator),
			"tip":           crypto.FormatAddress(tipAddr),
			"sequence":      strconv.FormatUint(tip.Sequence, 10),
		},
	}
}
