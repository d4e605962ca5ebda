package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prolly/internal/parse"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]int{"count": 2}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"count": float64(2)}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeQuota, "step quota of 10 exceeded", map[string]int{"line": 3}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeQuota, resp.Error.Code)
	assert.Equal(t, "step quota of 10 exceeded", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeParse, "unexpected token", "ignored"))
	assert.Equal(t, "Error [E002]: unexpected token\n", buf.String())
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, formatter.Error(ErrCodeParse, "unexpected token", map[string]int{"line": 2}))
	assert.Contains(t, buf.String(), "Error [E002]")
	assert.Contains(t, buf.String(), "Details: map[line:2]")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, diag := &bytes.Buffer{}, &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: diag,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Loaded %d clause(s)", 8)

			assert.Empty(t, out.String(), "diagnostics never reach stdout")
			if tt.wantLog {
				assert.Equal(t, "Loaded 8 clause(s)\n", diag.String())
			} else {
				assert.Empty(t, diag.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "load", errors.New("inner")))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.Equal(t, "outer: load: inner", wrapped.Error())
}

func TestOutputLoadError_TextShowsLine(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	_, parseErr := parse.ParseProgram("(a)\n(b\n")
	require.Error(t, parseErr)

	err := outputLoadError(formatter, parseErr)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "line 2\n")
	assert.Contains(t, buf.String(), "Error [E002]")
}

func TestOutputLoadError_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := outputLoadError(formatter, errors.New("disk on fire"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeGeneric, resp.Error.Code)
	assert.Equal(t, "disk on fire", resp.Error.Message)
}
