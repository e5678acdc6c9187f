package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"result": "success"}, "ignored"))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"result": "success"}, resp.Data)
	assert.NotContains(t, buf.String(), "ignored")
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"result": "success"}, "done"))
	assert.Equal(t, "done\n", buf.String())
}

func TestOutputFormatter_Emit(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Emit([]int{1, 2}, func(w io.Writer) { fmt.Fprint(w, "two items") }))
	assert.Equal(t, "two items", buf.String())
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	details := map[string]any{"product_id": "4"}
	require.NoError(t, formatter.Error("INSUFFICIENT_STOCK", "Not enough stock for USB-C Cable", details))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INSUFFICIENT_STOCK", resp.Error.Code)
	assert.Equal(t, "Not enough stock for USB-C Cable", resp.Error.Message)
	assert.Equal(t, details, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, ErrWriter: errBuf, Verbose: true}

	require.NoError(t, formatter.Error("UNKNOWN_PRODUCT", "Product not found", "id=9"))
	assert.Equal(t, "Error [UNKNOWN_PRODUCT]: Product not found\n", buf.String())
	assert.Equal(t, "Details: id=9\n", errBuf.String())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}

	quiet := &OutputFormatter{Format: "json", Writer: buf, ErrWriter: errBuf}
	quiet.VerboseLog("hidden %d", 1)
	assert.Empty(t, errBuf.String())

	loud := &OutputFormatter{Format: "json", Writer: buf, ErrWriter: errBuf, Verbose: true}
	loud.VerboseLog("shown %d", 2)
	assert.Equal(t, "shown 2\n", errBuf.String())
	assert.Empty(t, buf.String())
}

func TestExitError(t *testing.T) {
	cause := errors.New("disk full")

	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"nil", nil, ExitSuccess, ""},
		{"plain error", cause, ExitFailure, "disk full"},
		{"new", NewExitError(ExitCommandError, "bad args"), ExitCommandError, "bad args"},
		{"wrapped", WrapExitError(ExitFailure, "checkout failed", cause), ExitFailure, "checkout failed: disk full"},
		{"nested", fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "inner")), ExitCommandError, "outer: inner"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, GetExitCode(tt.err))
			if tt.err != nil {
				assert.Equal(t, tt.msg, tt.err.Error())
			}
		})
	}

	assert.ErrorIs(t, WrapExitError(ExitFailure, "x", cause), cause)
}
