package coral

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

func TestLibExtension(t *testing.T) {
	ext := LibExtension()
	switch runtime.GOOS {
	case "darwin":
		assert.Equal(t, ".dylib", ext)
	default:
		assert.Equal(t, ".so", ext)
	}
}

func TestLibName(t *testing.T) {
	assert.Equal(t, "coral"+LibExtension(), LibName())
}

func TestDefaultGrammarPaths(t *testing.T) {
	paths := DefaultGrammarPaths("/project/root")
	require.GreaterOrEqual(t, len(paths), 1)
	assert.Equal(t, "/project/root/.coral/grammars", paths[0])

	// Global path should be second
	if len(paths) > 1 {
		home, _ := os.UserHomeDir()
		assert.Equal(t, filepath.Join(home, ".coral", "grammars"), paths[1])
	}
}

func TestDefaultGrammarPaths_EmptyRoot(t *testing.T) {
	paths := DefaultGrammarPaths("")
	if home, err := os.UserHomeDir(); err == nil {
		require.Equal(t, 1, len(paths))
		assert.Equal(t, filepath.Join(home, ".coral", "grammars"), paths[0])
	}
}

func TestDynamicLoader_LoadGrammar_NotFound(t *testing.T) {
	dl := NewDynamicLoader([]string{"/nonexistent/path"})
	_, err := dl.LoadGrammar()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in search paths")
}

func TestDynamicLoader_GrammarPath_NotFound(t *testing.T) {
	dl := NewDynamicLoader([]string{"/nonexistent/path"})
	assert.Equal(t, "", dl.GrammarPath())
	assert.False(t, dl.Installed())
}

func TestDynamicLoader_GrammarPath_FindsLib(t *testing.T) {
	dir := t.TempDir()
	libPath := filepath.Join(dir, LibName())
	require.NoError(t, os.WriteFile(libPath, nil, 0644))

	dl := NewDynamicLoader([]string{dir})
	assert.Equal(t, libPath, dl.GrammarPath())
	assert.True(t, dl.Installed())
}

func TestDynamicLoader_SearchPathPriority(t *testing.T) {
	// Same library in two dirs — first path wins
	dir1 := t.TempDir()
	dir2 := t.TempDir()

	path1 := filepath.Join(dir1, LibName())
	path2 := filepath.Join(dir2, LibName())
	for _, p := range []string{path1, path2} {
		require.NoError(t, os.WriteFile(p, nil, 0644))
	}

	dl := NewDynamicLoader([]string{dir1, dir2})
	assert.Equal(t, path1, dl.GrammarPath())
}

func TestDynamicLoader_CachedLanguageReturned(t *testing.T) {
	dl := NewDynamicLoader([]string{"/nonexistent/path"})
	cached := tree_sitter.NewLanguage(unsafe.Pointer(&stubAutomaton))
	dl.lang = cached

	// Cache hit — no disk access, no dlopen
	lang, err := dl.LoadGrammar()
	require.NoError(t, err)
	assert.Same(t, cached, lang)
}

func TestDynamicLoader_Invalidate(t *testing.T) {
	dl := NewDynamicLoader([]string{"/nonexistent/path"})
	dl.lang = tree_sitter.NewLanguage(unsafe.Pointer(&stubAutomaton))
	dl.handle = 1

	dl.Invalidate()
	assert.Nil(t, dl.lang)
	assert.Zero(t, dl.handle)

	// Next load goes back to disk and fails — nothing installed
	_, err := dl.LoadGrammar()
	assert.Error(t, err)
}

func TestDynamicLoader_Close(t *testing.T) {
	dl := NewDynamicLoader([]string{"/tmp"})
	dl.lang = tree_sitter.NewLanguage(unsafe.Pointer(&stubAutomaton))
	dl.Close()
	assert.Nil(t, dl.lang)
}

func TestDynamicLoader_SearchPaths(t *testing.T) {
	paths := []string{"/a", "/b", "/c"}
	dl := NewDynamicLoader(paths)
	assert.Equal(t, paths, dl.SearchPaths())
}
