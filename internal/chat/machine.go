package chat

import "fmt"

// State is the exchange state of a session.
type State string

const (
	StateIdle           State = "idle"
	StateSending        State = "sending"
	StateErrorRecovered State = "error_recovered"
)

type event string

const (
	eventSend      event = "send"
	eventSucceeded event = "succeeded"
	eventFailed    event = "failed"
	eventRecovered event = "recovered"
	eventReset     event = "reset"
)

// transitions lists every legal state change. Anything missing is a bug.
var transitions = map[State]map[event]State{
	StateIdle: {
		eventSend:  StateSending,
		eventReset: StateIdle,
	},
	StateSending: {
		eventSucceeded: StateIdle,
		eventFailed:    StateErrorRecovered,
		eventReset:     StateIdle,
	},
	StateErrorRecovered: {
		eventRecovered: StateIdle,
		eventReset:     StateIdle,
	},
}

func next(from State, ev event) (State, error) {
	to, ok := transitions[from][ev]
	if !ok {
		return from, fmt.Errorf("chat: no transition from %s on %s", from, ev)
	}
	return to, nil
}
