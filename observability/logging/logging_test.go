package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRenamesCoreKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "launchpadd", "test", slog.LevelInfo)
	logger.Info("purchase settled", slog.String("launch", "lp1abc"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "purchase settled", line["message"])
	require.Equal(t, "INFO", line["severity"])
	require.Equal(t, "launchpadd", line["service"])
	require.Equal(t, "test", line["env"])
	require.Contains(t, line, "timestamp")
}

func TestNewHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "launchpadd", "", ParseLevel("warn"))
	logger.Info("dropped")
	require.Zero(t, buf.Len())
	logger.Warn("kept")
	require.NotZero(t, buf.Len())
}

func TestMaskField(t *testing.T) {
	require.Equal(t, "Bearer "+RedactedValue, MaskField("authorization", "Bearer abc.def").Value.String())
	require.Equal(t, RedactedValue, MaskField("authorization", "abc.def").Value.String())
	require.Equal(t, "", MaskField("token", "").Value.String())
	require.True(t, IsSensitive("Authorization"))
	require.False(t, IsSensitive("caller"))
}

func TestSensitiveKeysRedactedAutomatically(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "launchpadd", "", slog.LevelInfo)
	logger.Info("issued",
		slog.String("token", "eyJhbGciOi"),
		slog.String("caller", "lp1xyz"),
		MaskField("authorization", "Bearer eyJhbGciOi"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, RedactedValue, line["token"])
	require.Equal(t, "lp1xyz", line["caller"])
	require.Equal(t, "Bearer "+RedactedValue, line["authorization"])
}
