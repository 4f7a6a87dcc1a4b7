package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupProdWritesJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	log := setup(EnvProd, &buf)

	log.Debug("hidden")
	log.Info("booking created", slog.Int64("booking_id", 7), Err(errors.New("boom")))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "booking created", entry["msg"])
	assert.Equal(t, float64(7), entry["booking_id"])
	assert.Equal(t, "boom", entry["error"])
}

func TestPrettyHandlerIncludesAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := setup(EnvLocal, &buf).With(slog.String("op", "test"))

	log.Debug("slot computed", slog.Int("count", 3))

	out := buf.String()
	assert.Contains(t, out, "slot computed")
	assert.Contains(t, out, `"op": "test"`)
	assert.Contains(t, out, `"count": 3`)
}
