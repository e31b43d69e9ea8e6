package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_HappyPath(t *testing.T) {
	path := writeConfig(t, validConfigCUE)

	out, err := execute(t, "run", path, "--quantity", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Order committed")
	assert.Contains(t, out, "acct-123")
}

func TestRun_PersistsToStore(t *testing.T) {
	cfgPath := writeConfig(t, validConfigCUE)
	dbPath := filepath.Join(t.TempDir(), "orders.db")

	out, err := execute(t, "run", cfgPath, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Order committed: ref 1")

	// The committed order shows up in the listing.
	out, err = execute(t, "orders", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "FOLIO")
	assert.Contains(t, out, "Cliente de Prueba")
}

func TestRun_Decline(t *testing.T) {
	cfgPath := writeConfig(t, validConfigCUE)

	out, err := execute(t, "run", cfgPath, "--decline")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Flow stopped at step 4")
}

func TestRun_FailCommitRecordsLedger(t *testing.T) {
	cfgPath := writeConfig(t, validConfigCUE)
	dbPath := filepath.Join(t.TempDir(), "orders.db")

	out, err := execute(t, "run", cfgPath, "--db", dbPath, "--fail-commit")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "PAYMENT CAPTURED, ORDER NOT RECORDED")

	// The captured intent is in the reconciliation ledger.
	out, err = execute(t, "reconcile", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "INTENT")
	assert.Contains(t, out, "pi_")
	assert.Contains(t, out, "order commit failed")
}

func TestRun_MissingDefaultsFailsCommit(t *testing.T) {
	cfgPath := writeConfig(t, noDefaultsConfigCUE)

	out, err := execute(t, "run", cfgPath)
	require.Error(t, err)
	assert.Contains(t, out, "PAYMENT CAPTURED, ORDER NOT RECORDED")
	assert.Contains(t, out, "missing account configuration")
}

func TestRun_JSONFormat(t *testing.T) {
	cfgPath := writeConfig(t, validConfigCUE)

	out, err := execute(t, "--format", "json", "run", cfgPath)
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["committed"])
	assert.Equal(t, float64(5), data["final_step"])
	assert.Equal(t, true, data["signature_required"])
}

func TestOrders_MissingDatabase(t *testing.T) {
	_, err := execute(t, "orders", filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReconcile_EmptyLedger(t *testing.T) {
	cfgPath := writeConfig(t, validConfigCUE)
	dbPath := filepath.Join(t.TempDir(), "orders.db")

	// Create the database through a successful run.
	_, err := execute(t, "run", cfgPath, "--db", dbPath)
	require.NoError(t, err)

	out, err := execute(t, "reconcile", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No unreconciled transactions")
}

func TestReconcile_Resolve(t *testing.T) {
	cfgPath := writeConfig(t, validConfigCUE)
	dbPath := filepath.Join(t.TempDir(), "orders.db")

	out, err := execute(t, "run", cfgPath, "--db", dbPath, "--fail-commit")
	require.Error(t, err)

	// Pull the intent id out of the JSON listing.
	out, err = execute(t, "--format", "json", "reconcile", dbPath)
	require.NoError(t, err)
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	entries, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, entries, 1)
	intentID := entries[0].(map[string]interface{})["IntentID"].(string)

	_, err = execute(t, "reconcile", dbPath, "--resolve", intentID)
	require.NoError(t, err)

	out, err = execute(t, "reconcile", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No unreconciled transactions")

	_, err = execute(t, "reconcile", dbPath, "--resolve", "pi_3unknown")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
