package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLogger_FormatsEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("watcher", &buf)

	logger.Infof("processed %d elements", 3)

	out := buf.String()
	assert.Contains(t, out, "[watcher]")
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "processed 3 elements")
}

func TestWriterLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("registry", &buf)
	logger.SetLevel(LevelWarn)

	logger.Debugf("debug")
	logger.Infof("info")
	logger.Warnf("warn")
	logger.Errorf("error")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[WARN] warn")
	assert.Contains(t, lines[1], "[ERROR] error")
}

func TestWith_PrefixesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("browser", &buf).With("mirror")

	logger.Errorf("replay failed")

	assert.Contains(t, buf.String(), "[browser.mirror]")
}

func TestNilLogger_IsSafe(t *testing.T) {
	var logger *Logger

	assert.NotPanics(t, func() {
		logger.Infof("ignored")
		logger.SetLevel(LevelError)
		_ = logger.With("child")
		_ = logger.Close()
	})
	assert.Empty(t, logger.LogPath())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "debug", want: LevelDebug},
		{in: "INFO", want: LevelInfo},
		{in: "", want: LevelInfo},
		{in: "warning", want: LevelWarn},
		{in: "error", want: LevelError},
		{in: "loud", want: LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
