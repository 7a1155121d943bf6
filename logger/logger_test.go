package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweetenFields(t *testing.T) {
	err := errors.New("boom")
	fields := sweeten([]interface{}{
		WithField("contract", "vault"),
		"method", "deposit_for",
		err,
		errors.New("second"),
		42, "ignored",
		"dangling",
	})

	assert.Equal(t, []Field{
		{Key: "contract", Val: "vault"},
		{Key: "method", Val: "deposit_for"},
		{Key: "error", Val: err},
	}, fields)
	assert.Empty(t, sweeten(nil))
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)
	defer l.Close()

	l.Debug("executed", WithField("contract", "router"), WithField("height", 7))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "executed", line["msg"])
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "router", line["contract"])
	assert.Equal(t, float64(7), line["height"])
}

func TestLogLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "warn", Output: &buf})
	require.NoError(t, err)

	l.Info("hidden")
	assert.Zero(t, buf.Len())
	l.Warnf("shown %d", 1)
	assert.Contains(t, buf.String(), "shown 1")
}

func TestLogstashUnreachable(t *testing.T) {
	_, err := New(Config{Logstash: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestMockLogger(t *testing.T) {
	m := NewMockLogger()
	m.Info("a", WithField("k", "v"))
	m.Errorf("b %s", "c")

	entries := m.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Level: "info", Message: "a", Fields: []Field{{Key: "k", Val: "v"}}}, entries[0])
	assert.Equal(t, "b c", entries[1].Message)
}
