package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI against a badger store in dir.
func run(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MARKETMIND_ENV", filepath.Join(dir, "missing.env"))
	t.Setenv("STORE_BACKEND", "badger")
	t.Setenv("BADGER_PATH", filepath.Join(dir, "snapshots"))
	t.Setenv("REASONING_PROVIDER", "none")
	t.Setenv("REDIS_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	root, c := newRootCmd()
	defer c.close()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

const batch = `{
	"regime": {"risk_appetite": "risk_off"},
	"proposals": [{"statement": "ETH/BTC bottoming", "confidence": "LOW"}]
}`

func TestCycleFromStdinThenQuery(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, batch, "cycle")
	require.NoError(t, err)
	var report struct {
		Snapshot struct {
			CycleSequence int64 `json:"cycle_sequence"`
		} `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, int64(1), report.Snapshot.CycleSequence)

	out, err = run(t, dir, "", "hypotheses", "--status", "forming")
	require.NoError(t, err)
	assert.Contains(t, out, "ETH/BTC bottoming")

	out, err = run(t, dir, "", "export")
	require.NoError(t, err)
	assert.Contains(t, out, "risk_appetite: risk_off")

	out, err = run(t, dir, "", "snapshot", "--seq", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `"cycle_sequence": 1`)
}

func TestRecordRuleThenList(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "", "rules", "record", "--category", "macro", "--statement", "Check DXY first", "--condition", "signal:macro")
	require.NoError(t, err)

	out, err := run(t, dir, "", "rules", "--category", "macro")
	require.NoError(t, err)
	assert.Contains(t, out, "Check DXY first")
}

func TestInvalidInputs(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, `{"nope": true}`, "cycle")
	assert.ErrorIs(t, err, domain.ErrInvalidObservation)

	_, err = run(t, dir, "", "hypotheses", "--status", "DORMANT")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "marketmind "))
}
