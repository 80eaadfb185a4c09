package ingestion

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 10)

	tracker.Increment(50)
	assert.Empty(t, buf.String(), "nothing is reported before Start")

	tracker.Start(0)
	tracker.Increment(5)
	assert.Empty(t, buf.String(), "below the report interval")

	tracker.Increment(20)
	assert.Contains(t, buf.String(), "25/100 (25.0%)")
	assert.Greater(t, tracker.Elapsed(), time.Duration(0))

	tracker.Increment(500)
	assert.Contains(t, buf.String(), "100/100 (100.0%)", "capped at total")

	tracker.Finish()
	assert.Contains(t, buf.String(), "documents/s\n")
}

func TestProgressTracker_Resumed(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 1)

	tracker.Start(6)
	tracker.Increment(2)
	assert.Contains(t, buf.String(), "8/10")
}

func TestProgressTracker_Empty(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 0, 0)

	tracker.Start(0)
	tracker.Finish()
	assert.Contains(t, buf.String(), "0/0 (100.0%)")
}

func TestProgressTracker_FinishOnce(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 4, 10)

	tracker.Start(0)
	tracker.Increment(4)
	tracker.Finish()
	tracker.Finish()
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}
