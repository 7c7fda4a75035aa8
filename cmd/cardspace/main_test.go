package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}

func TestCatalogCommand(t *testing.T) {
	out, err := execute(t, "", "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "chat")
	assert.Contains(t, out, "settings")
}

func TestCatalogCommandRejectsMissingFile(t *testing.T) {
	_, err := execute(t, "", "catalog", "--file", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRecordRoundTripSQLite(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "layouts.db"))

	record := `{"device_id":"laptop","version":3,"layout_mode":"tile",
		"bounds":{"width":1280,"height":800},"next_z":1,
		"cards":[{"id":"c1","type":"chat","title":"Chat",
		"geometry":{"x":0,"y":0,"width":400,"height":300,"z_index":1}}]}`

	out, err := execute(t, record, "record", "put", "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "stored 1 cards for alice (sqlite)")

	out, err = execute(t, "", "record", "get", "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, `"user_id": "alice"`)
	assert.Contains(t, out, `"hash": "`)

	out, err = execute(t, "", "record", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "USER")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "laptop")
}

func TestRecordErrors(t *testing.T) {
	_, err := execute(t, "", "record", "get")
	assert.Error(t, err, "user is required")

	_, err = execute(t, "", "record", "get", "--user", "nobody")
	assert.ErrorContains(t, err, "no record for user nobody")

	_, err = execute(t, "{not json", "record", "put", "--user", "alice")
	assert.ErrorContains(t, err, "failed to decode record")

	_, err = execute(t, "", "record", "list")
	assert.ErrorContains(t, err, "cannot list records")
}
