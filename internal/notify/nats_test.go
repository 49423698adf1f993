package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/styleguide-tools/stylepub/internal/publish"
)

func TestEncodeReport(t *testing.T) {
	report := &publish.Report{
		RunID:       "run-1",
		StartBranch: "main",
		FinalBranch: "main",
		Outcome:     publish.OutcomeSuccess,
		Commit:      "abc123",
		Completed:   publish.StepOrder,
		Started:     time.Now().Add(-time.Second),
		Finished:    time.Now(),
	}

	data, err := encodeReport(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "run-1", decoded["run_id"])
	require.Equal(t, "success", decoded["outcome"])
	require.Equal(t, "abc123", decoded["commit"])
}

func TestNewPublisher_BadURL(t *testing.T) {
	_, err := NewPublisher("nats://127.0.0.1:1", "stylepub.runs")
	require.Error(t, err)
}
