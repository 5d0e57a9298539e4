package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPercentEmitsOnChangeOnly(t *testing.T) {
	tracker := NewTracker("/music/a.flac")
	var events []Event
	tracker.AddListener(func(ev Event) { events = append(events, ev) })

	tracker.SetPercent(10)
	tracker.SetPercent(10)
	tracker.SetPercent(5) // regression, dropped
	tracker.SetPercent(42)

	require.Len(t, events, 2)
	assert.Equal(t, 10, events[0].Percent)
	assert.Equal(t, 42, events[1].Percent)
	assert.Equal(t, 42, tracker.Percent())
}

func TestSetPercentClamps(t *testing.T) {
	tracker := NewTracker("a")
	tracker.SetPercent(250)
	assert.Equal(t, 100, tracker.Percent())
}

func TestStageAndMessages(t *testing.T) {
	tracker := NewTracker("/music/a.flac")
	var events []Event
	tracker.AddListener(func(ev Event) { events = append(events, ev) })

	tracker.SetStage(StageDecoding)
	tracker.Info("Transcoding a.flac")
	tracker.Fail("no audio stream")
	tracker.SetStage(StageError)

	require.Len(t, events, 4)
	assert.Equal(t, StageDecoding, events[0].Stage)
	assert.Equal(t, "Transcoding a.flac", events[1].Message)
	// Error messages do not change the stage by themselves.
	assert.Equal(t, "no audio stream", events[2].Error)
	assert.Equal(t, StageDecoding, events[2].Stage)
	assert.Equal(t, StageError, tracker.Stage())
}

func TestEventsCarrySource(t *testing.T) {
	tracker := NewTracker("/music/a.flac")
	var got Event
	tracker.AddListener(func(ev Event) { got = ev })

	tracker.Info("hello")
	assert.Equal(t, "/music/a.flac", got.Source)
	assert.False(t, got.Timestamp.IsZero())
}
