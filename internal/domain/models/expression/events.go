package expression

import (
	"encoding/json"
	"fmt"
)

// Outbound event names
const (
	EventInited           = "expression-inited"
	EventChanged          = "expression-changed"
	EventConstantsChanged = "constants-changed"
)

// Event is a notification emitted by an editor.
type Event struct {
	Name string
	Data any
}

// InitedPayload reports whether the math library is usable.
type InitedPayload struct {
	MathLoaded bool `json:"mathLoaded"`
}

// ChangedPayload carries the derived expression.
type ChangedPayload struct {
	Expression string `json:"expression"`
	Result     any    `json:"result"`
	ErrMsg     string `json:"errMsg"`
}

// ConstantsPayload carries the constant palette.
type ConstantsPayload struct {
	Constants []string `json:"constants"`
}

// NewChangedEvent builds an expression-changed event from an evaluation.
func NewChangedEvent(ev Evaluation) Event {
	return Event{Name: EventChanged, Data: ChangedPayload{
		Expression: ev.Expression,
		Result:     ev.Result,
		ErrMsg:     ev.Error,
	}}
}

// FormatSSE renders an event in Server-Sent Events wire format:
//
//	event: expression-changed
//	data: {"expression":"1 + 2","result":3,"errMsg":""}
func FormatSSE(event Event) (string, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", event.Name, err)
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", event.Name, data), nil
}
