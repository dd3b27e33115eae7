package tabular

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

func TestCSVDirLoaderLoadAll(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "units.csv"),
		[]byte("unit_id,name,strength,active\nU1,1st Battalion,650,true\nU2, 2nd Battalion ,,false\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"),
		[]byte("not a table"), 0o644))

	l := NewCSVDirLoader(dir, zap.NewNop())
	tables, err := l.LoadAll(context.Background())
	require.NoError(t, err)

	require.Len(t, tables, 1)
	units := tables["units"]
	require.NotNil(t, units)
	assert.Equal(t, []string{"unit_id", "name", "strength", "active"}, units.Columns)
	require.Len(t, units.Rows, 2)

	first := units.Rows[0]
	assert.Equal(t, models.StringValue("U1"), first["unit_id"])
	assert.Equal(t, models.NumberValue(650), first["strength"])
	assert.Equal(t, models.BoolValue(true), first["active"])

	second := units.Rows[1]
	assert.Equal(t, "2nd Battalion", second.Text("name"))
	assert.True(t, second["strength"].IsEmpty())
}

func TestCSVDirLoaderSkipsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.csv"),
		[]byte("id,name\n1,ok\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.csv"),
		[]byte("id,name\n1,\"unterminated\n"), 0o644))

	l := NewCSVDirLoader(dir, zap.NewNop())
	tables, err := l.LoadAll(context.Background())
	require.NoError(t, err)

	assert.Contains(t, tables, "good")
	assert.NotContains(t, tables, "bad")
}

func TestCSVDirLoaderLoadTable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unit_status.csv"),
		[]byte("unit_id,readiness\nU1,green\n"), 0o644))

	l := NewCSVDirLoader(dir, zap.NewNop())
	rows, err := l.LoadTable(context.Background(), "unit_status")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "green", rows[0].Text("readiness"))

	_, err = l.LoadTable(context.Background(), "absent")
	assert.Error(t, err)
}

func TestTableNameForPath(t *testing.T) {
	assert.Equal(t, "units", TableNameForPath("/data/units.csv"))
	assert.Equal(t, "unit_status", TableNameForPath("unit_status.csv"))
}
