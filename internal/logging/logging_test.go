package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", "json", &buf)

	logger.Info("dropped")
	logger.Warn("kept", "question_id", "q-1")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "q-1", entry["question_id"])
}

func TestWith_CarriesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New("debug", "text", &buf).With("component", "workflow")

	logger.Debug("step done")
	assert.Contains(t, buf.String(), "component=workflow")
	assert.Contains(t, buf.String(), "step done")
}
