package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_WithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `version: 1
parser:
  style_containers: [style, css]
  trace_layout: true
output:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"style", "css"}, cfg.Parser.StyleContainers)
	assert.True(t, cfg.Parser.TraceLayout)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.Equal(t, "  ", cfg.Output.Indent, "unset values keep their defaults")
	assert.Equal(t, "normal", cfg.Logging.Level)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Parse([]byte("parser:\n  unknown: 1\n"), Default())
	assert.ErrorContains(t, err, "failed to decode configuration data")
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse([]byte("  \n"), Default())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Version = 2
	cfg.Parser.StyleContainers = []string{"style", "x-css"}
	cfg.Output.Format = "yaml"
	cfg.Output.Indent = "--"
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 5)
	assert.ErrorContains(t, err, `"x-css" is not a tag name`)

	cfg = Default()
	cfg.Parser.StyleContainers = nil
	assert.ErrorContains(t, cfg.Validate(), "must not be empty")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"tree": FormatTree, " JSON": FormatJSON, "Html": FormatHTML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestDump_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Output.InlineStyles = true

	data, err := Dump(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "inline_styles: true")

	back, err := Parse(data, &Config{})
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

type syncBuffer struct{ bytes.Buffer }

func (*syncBuffer) Sync() error { return nil }

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		level     string
		wantOut   []string
		wantEmpty bool
	}{
		{level: "debug", wantOut: []string{"dbg", "inf"}},
		{level: "normal", wantOut: []string{"inf"}},
		{level: "none", wantEmpty: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var out, errOut syncBuffer
			conf := LoggingConfig{Level: tt.level}
			log := conf.build(&out, false, &errOut, false)

			log.Debug("dbg")
			log.Info("inf")
			log.Error("bad")

			if tt.wantEmpty {
				assert.Empty(t, out.String())
				assert.Empty(t, errOut.String())
				return
			}
			for _, msg := range tt.wantOut {
				assert.Contains(t, out.String(), msg)
			}
			assert.NotContains(t, out.String(), "bad")
			assert.Contains(t, errOut.String(), "bad")
			assert.NotContains(t, errOut.String(), "inf")
			if tt.level == "normal" {
				assert.NotContains(t, out.String(), "dbg")
			}
		})
	}
}

func TestLogger_PrepareRejectsUnknownLevel(t *testing.T) {
	conf := LoggingConfig{Level: "verbose"}
	_, err := conf.Prepare()
	assert.Error(t, err)
}
