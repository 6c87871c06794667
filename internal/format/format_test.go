package format

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metamodel/internal/loader"
)

const netSchema = `element Net
element Place
attribute Place tokens
association Net.places -> Place.net
`

func TestInstance(t *testing.T) {
	reg, err := loader.ParseSchema(netSchema, "net.m2")
	require.NoError(t, err)

	input := "# two places\nroot = Net()\na = Place(net = root,tokens=1)\n\nPlace(net=root)\n"
	expected := "root = Net()\na = Place(tokens=1, net=root)\nPlace(net=root)\n"

	got, err := New(nil).Instance(input, "net.m1", reg)
	require.NoError(t, err)
	assert.Equal(t, expected, got)

	again, err := New(nil).Instance(got, "net.m1", reg)
	require.NoError(t, err)
	assert.Equal(t, got, again, "formatting is idempotent")
}

func TestSchema(t *testing.T) {
	got, err := New(nil).Schema("element Net  # top\nelement Place\nassociation Net.places -> Place.net\nattribute Place tokens\n", "net.m2")
	require.NoError(t, err)
	assert.Equal(t, "element Net\nelement Place\nassociation Net.places -> Place.net\nattribute Place tokens\n", got)
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "net.m2")
	instancePath := filepath.Join(dir, "net.m1")
	require.NoError(t, os.WriteFile(schemaPath, []byte(netSchema), 0644))
	require.NoError(t, os.WriteFile(instancePath, []byte("root=Net()\n"), 0644))

	f := New(loader.New())

	d, err := f.SchemaFile(schemaPath)
	require.NoError(t, err)
	assert.False(t, d.Changed)

	reg, err := loader.LoadSchema(schemaPath)
	require.NoError(t, err)
	d, err = f.InstanceFile(instancePath, reg)
	require.NoError(t, err)
	assert.True(t, d.Changed)
	assert.Equal(t, "root = Net()\n", d.Formatted)

	_, err = f.InstanceFile(filepath.Join(dir, "missing.m1"), reg)
	var loadErr *loader.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, loader.PhaseIO, loadErr.Phase)
}

func TestDiff(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	d := Diff("a\nb\nc\n", "a\nc\nd\n")
	require.True(t, d.Changed)
	assert.Equal(t, []Line{
		{OpEqual, "a"},
		{OpDelete, "b"},
		{OpEqual, "c"},
		{OpInsert, "d"},
	}, d.Lines)
	assert.Equal(t, "- b\n+ d\n", d.String())
	assert.Equal(t, "1 lines added, 1 removed", d.Stats())

	unified := d.UnifiedDiff("x.m1")
	assert.True(t, strings.HasPrefix(unified, "--- a/x.m1\n+++ b/x.m1\n@@ -1,3 +1,3 @@\n"))
	assert.Contains(t, unified, "-b\n")
	assert.Contains(t, unified, " a\n")

	same := Diff("a\n", "a\n")
	assert.False(t, same.Changed)
	assert.Equal(t, "No changes", same.Stats())
	assert.Empty(t, same.UnifiedDiff("x.m1"))
}
