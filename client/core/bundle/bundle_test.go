package bundle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expansion/v1/pkg/types"
)

const compilerOutput = `{"modules":["oRzrCwYAAAA=","AQID"],"dependencies":["0x1","0x2","0xabc"],"digest":[1,2,3]}`

func TestParse(t *testing.T) {
	b, err := Parse([]byte(compilerOutput))
	require.NoError(t, err)
	require.Len(t, b.Modules, 2)
	assert.Equal(t, []byte{1, 2, 3}, b.Modules[1])
	assert.Equal(t, 11, b.Size())
	assert.Equal(t, types.MustParseObjectID("0xabc"), b.Dependencies[2])

	_, err = Parse([]byte(`{"modules":[]}`))
	assert.ErrorIs(t, err, ErrEmptyBundle)

	_, err = Parse([]byte(`{"modules":["!!"]}`))
	assert.Error(t, err)
}

func TestLoadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(path, []byte(compilerOutput), 0o644))

	b, err := NewCompiler("", nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, b.Source)
	assert.Len(t, b.Modules, 2)
}

func TestLoadModuleDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_scenes.mv"), []byte{2}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_xcoin.mv"), []byte{1}, 0o644))

	b, err := NewCompiler("", nil).Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{1}, {2}}, b.Modules)
	assert.Equal(t, []types.ObjectID{types.MustParseObjectID("0x1"), types.MustParseObjectID("0x2")}, b.Dependencies)

	_, err = LoadModules(t.TempDir())
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestCompilePackage(t *testing.T) {
	dir := t.TempDir()
	pkg := filepath.Join(dir, "expansion")
	require.NoError(t, os.MkdirAll(pkg, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pkg, manifestName), []byte("[package]\n"), 0o644))

	script := filepath.Join(dir, "fake-sui")
	body := "#!/bin/sh\necho 'BUILDING expansion'\necho '" + compilerOutput + "'\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	b, err := NewCompiler(script, nil).Load(context.Background(), pkg)
	require.NoError(t, err)
	assert.Equal(t, pkg, b.Source)
	assert.Len(t, b.Modules, 2)
}

func TestCompileFailure(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-sui")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 'unbound module' >&2\nexit 1\n"), 0o755))

	_, err := NewCompiler(script, nil).Build(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unbound module")
}
