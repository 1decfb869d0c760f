package source_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matseed/internal/source"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPicksFrontendByExtension(t *testing.T) {
	dir := t.TempDir()
	tsPath := write(t, dir, "materials.ts", "export const A = 1;\n")
	goPath := write(t, dir, "materials.go", "package m\n\nvar B = 2\n")

	unit, err := source.Load(tsPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, unit.Names())

	unit, err = source.Load(goPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, unit.Names())

	fe, err := source.ForPath("x.MJS")
	require.NoError(t, err)
	assert.Equal(t, "ts", fe.Name())
}

func TestLoadDirectoryAsGoPackage(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "palette.go", "package palette\n\nconst Red = \"#a52019\"\n")

	unit, err := source.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Red"}, unit.Names())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := source.Load(write(t, dir, "data.yaml", "a: 1\n"))
	assert.ErrorContains(t, err, "no frontend")

	_, err = source.Load(filepath.Join(dir, "missing.ts"))
	assert.Error(t, err)

	_, err = source.Load(write(t, dir, "bad.ts", "const A = 'unterminated\n"))
	assert.ErrorContains(t, err, "bad.ts:1:")
}
