package coral

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// GrammarSymbol is the C entry point exported by the compiled grammar.
const GrammarSymbol = "tree_sitter_coral"

// DynamicLoader opens the coral grammar from a shared library (.so on
// Linux, .dylib on macOS) using purego. It searches configured paths for
// the library and caches the loaded language for reuse.
type DynamicLoader struct {
	searchPaths []string
	mu          sync.Mutex
	lang        *tree_sitter.Language
	handle      uintptr
}

// NewDynamicLoader creates a loader that searches the given paths for the
// grammar shared library. Paths are searched in order; first match wins.
func NewDynamicLoader(searchPaths []string) *DynamicLoader {
	return &DynamicLoader{searchPaths: searchPaths}
}

// DefaultGrammarPaths returns the default search paths for the grammar
// shared library. Project-local (.coral/grammars/) is searched first, then
// global (~/.coral/grammars/).
func DefaultGrammarPaths(projectRoot string) []string {
	var paths []string
	if projectRoot != "" {
		paths = append(paths, filepath.Join(projectRoot, ".coral", "grammars"))
	}
	if dir := GlobalGrammarDir(); dir != "" {
		paths = append(paths, dir)
	}
	return paths
}

// LibExtension returns the shared library extension for the current platform.
func LibExtension() string {
	if runtime.GOOS == "darwin" {
		return ".dylib"
	}
	return ".so"
}

// LibName returns the expected shared library file name, e.g. "coral.so".
func LibName() string {
	return LanguageName + LibExtension()
}

// LoadGrammar opens the grammar shared library and resolves its entry
// point. The result is cached; subsequent calls return the cached language
// until Invalidate.
func (dl *DynamicLoader) LoadGrammar() (*tree_sitter.Language, error) {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if dl.lang != nil {
		return dl.lang, nil
	}

	soPath := dl.grammarPathLocked()
	if soPath == "" {
		return nil, fmt.Errorf("coral grammar: %s not found in search paths %v", LibName(), dl.searchPaths)
	}

	handle, err := purego.Dlopen(soPath, purego.RTLD_LAZY)
	if err != nil {
		return nil, fmt.Errorf("coral grammar: dlopen %s: %w", soPath, err)
	}

	var langFunc func() uintptr
	purego.RegisterLibFunc(&langFunc, handle, GrammarSymbol)

	ptr := langFunc()
	if ptr == 0 {
		return nil, fmt.Errorf("coral grammar: %s() in %s: %w", GrammarSymbol, soPath, ErrNilLanguage)
	}

	// Convert uintptr from C (purego) to unsafe.Pointer without triggering
	// go vet's unsafeptr check. Safe because ptr is a static TSLanguage*
	// from the grammar library, not a Go-managed pointer.
	dl.lang = tree_sitter.NewLanguage(*(*unsafe.Pointer)(unsafe.Pointer(&ptr)))
	dl.handle = handle
	return dl.lang, nil
}

// GrammarPath returns the path to the grammar shared library, or "" if not
// found in any search path.
func (dl *DynamicLoader) GrammarPath() string {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.grammarPathLocked()
}

func (dl *DynamicLoader) grammarPathLocked() string {
	for _, dir := range dl.searchPaths {
		candidate := filepath.Join(dir, LibName())
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Installed reports whether the grammar shared library is present in any
// search path.
func (dl *DynamicLoader) Installed() bool {
	return dl.GrammarPath() != ""
}

// Invalidate drops the cached language so the next LoadGrammar reopens the
// library. Used after the grammar is rebuilt or reinstalled. Previously
// handed-out languages stay valid until the process exits.
func (dl *DynamicLoader) Invalidate() {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	dl.lang = nil
	dl.handle = 0
}

// Close releases the cached state. The dlopen handle is deliberately not
// closed: languages already handed to hosts point into the library.
func (dl *DynamicLoader) Close() {
	dl.Invalidate()
}

// SearchPaths returns the configured search paths.
func (dl *DynamicLoader) SearchPaths() []string {
	return dl.searchPaths
}
