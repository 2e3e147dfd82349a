package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "debug", "production")

	logger.Debug().Str("user_id", "u1").Msg("entry created")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "entry created", line["message"])
	assert.Equal(t, "u1", line["user_id"])
	assert.Equal(t, "mindnest-backend", line["service"])
}

func TestNewWithWriterFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "loud", "production")

	logger.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())

	logger.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}
