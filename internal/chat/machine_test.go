package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitions(t *testing.T) {
	tests := []struct {
		from State
		ev   event
		want State
	}{
		{StateIdle, eventSend, StateSending},
		{StateSending, eventSucceeded, StateIdle},
		{StateSending, eventFailed, StateErrorRecovered},
		{StateErrorRecovered, eventRecovered, StateIdle},
		{StateIdle, eventReset, StateIdle},
		{StateSending, eventReset, StateIdle},
		{StateErrorRecovered, eventReset, StateIdle},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.ev), func(t *testing.T) {
			got, err := next(tt.from, tt.ev)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransitions_Illegal(t *testing.T) {
	illegal := []struct {
		from State
		ev   event
	}{
		{StateSending, eventSend},
		{StateIdle, eventSucceeded},
		{StateIdle, eventFailed},
		{StateErrorRecovered, eventSend},
	}

	for _, tt := range illegal {
		got, err := next(tt.from, tt.ev)
		assert.Error(t, err)
		assert.Equal(t, tt.from, got)
	}
}
