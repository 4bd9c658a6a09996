package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionLogging(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "debug", "json")
	t.Cleanup(func() { Initialize("info", "text") })

	ctx := context.Background()
	txID := NewTxID()
	_, err := uuid.Parse(txID)
	require.NoError(t, err)

	TxBegin(ctx, txID)
	TxEnd(ctx, txID, "rollback", errors.New("connection closed"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var begin, end map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &begin))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &end))

	assert.Equal(t, txID, begin["tx_id"])
	assert.Equal(t, "begin", begin["event"])
	assert.Equal(t, "DEBUG", begin["level"])

	assert.Equal(t, txID, end["tx_id"])
	assert.Equal(t, "rollback", end["event"])
	assert.Equal(t, "ERROR", end["level"])
	assert.Equal(t, "connection closed", end["error"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "warn", "text")
	t.Cleanup(func() { Initialize("info", "text") })

	DatabaseCall("create_lease", "INSERT ...")
	Info("hidden")
	assert.Empty(t, buf.String())

	Warn("shown", "item", 101)
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "item=101")
}
