package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/campusmart/internal/ids"
)

type stubGenerator struct {
	reply string
}

func (g stubGenerator) Generate(context.Context, string) (string, error) {
	return g.reply, nil
}

// cliEnv is one database shared by a series of command invocations.
type cliEnv struct {
	t     *testing.T
	db    string
	hooks *Hooks
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("CAMPUSMART_DB", "")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("API_KEY", "")
	return &cliEnv{
		t:  t,
		db: filepath.Join(t.TempDir(), "campusmart.db"),
		hooks: &Hooks{
			IDs:       ids.NewSequenceGenerator("p"),
			TxIDs:     ids.NewSequenceGenerator("tx"),
			Clock:     ids.NewFixedClock(time.Date(2024, 9, 2, 14, 30, 0, 0, time.UTC)),
			Generator: stubGenerator{reply: "Generated text."},
		},
	}
}

// run executes one command and returns stdout.
func (e *cliEnv) run(stdin string, args ...string) (string, error) {
	e.t.Helper()
	cmd := newRootCommand(&RootOptions{Hooks: e.hooks})
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--db", e.db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// mustRun fails the test on error.
func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run("", args...)
	require.NoError(e.t, err, out)
	return out
}

// login starts a session for the env.
func (e *cliEnv) login() {
	e.t.Helper()
	e.mustRun("login", "alex")
}

// jsonData decodes the data field of a CLIResponse into v.
func jsonData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status, out)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}
