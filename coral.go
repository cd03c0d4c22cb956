// Package coral packages the compiled coral grammar behind a fixed
// registration surface. Hosts call Initialize with their exports container
// and receive exactly two entries: the grammar name ("coral") and the
// automaton handle their parser consumes.
//
// The automaton comes from one of two places: the compiled-in entry point
// registered by importing bindings/go, or a coral shared library found in
// the grammar search paths and opened at runtime.
package coral

import (
	"errors"
	"sync"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// LanguageName is the name the grammar registers under. It never changes
// for the lifetime of the process.
const LanguageName = "coral"

// Keys written into the exports container by Initialize.
const (
	ExportName     = "name"
	ExportLanguage = "language"
)

// ErrNilLanguage is returned when the grammar entry point resolves but
// yields a null automaton, which means the grammar library is broken.
var ErrNilLanguage = errors.New("coral: grammar entry point returned a nil language")

// Exports is the mutable key-value surface a host runtime receives at
// module load. The container is created and owned by the caller.
type Exports map[string]any

// Descriptor pairs the grammar name with its automaton handle. The language
// is borrowed from the grammar library's static state: it lives for the
// whole process and is never freed here.
type Descriptor struct {
	Name     string
	Language *tree_sitter.Language
}

var (
	epMu       sync.Mutex
	entryPoint func() unsafe.Pointer

	loaderMu sync.Mutex
	loader   *DynamicLoader

	loadOnce sync.Once
	loaded   Descriptor
	loadErr  error
)

// RegisterEntryPoint installs the grammar's compiled-in entry point. The
// bindings/go package calls this from an init function, so importing it is
// enough:
//
//	import _ "github.com/corey/tree-sitter-coral/bindings/go"
//
// Without a registered entry point, Load falls back to the shared-library
// loader.
func RegisterEntryPoint(fn func() unsafe.Pointer) {
	epMu.Lock()
	defer epMu.Unlock()
	entryPoint = fn
}

// SetGrammarPaths overrides the search paths used by the shared-library
// fallback. Only relevant when no compiled-in entry point is registered.
// Must be called before the first Load.
func SetGrammarPaths(paths []string) {
	loaderMu.Lock()
	defer loaderMu.Unlock()
	loader = NewDynamicLoader(paths)
}

// Load returns the process-wide grammar descriptor, constructing it on the
// first call. The entry point is invoked at most once per process; both the
// descriptor and a failure are cached for the process lifetime. Safe for
// concurrent callers.
func Load() (Descriptor, error) {
	loadOnce.Do(func() {
		lang, err := acquire()
		if err != nil {
			loadErr = err
			return
		}
		loaded = Descriptor{Name: LanguageName, Language: lang}
	})
	return loaded, loadErr
}

// Initialize populates exports with the registration surface: exactly the
// keys "name" and "language". The same container is returned to the caller.
// On failure the container is left untouched — no partial exports are
// observable. A nil container is allocated.
func Initialize(exports Exports) (Exports, error) {
	d, err := Load()
	if err != nil {
		return exports, err
	}
	if exports == nil {
		exports = make(Exports, 2)
	}
	exports[ExportName] = d.Name
	exports[ExportLanguage] = d.Language
	return exports, nil
}

// acquire obtains the automaton handle, preferring the compiled-in entry
// point over the shared-library loader.
func acquire() (*tree_sitter.Language, error) {
	epMu.Lock()
	fn := entryPoint
	epMu.Unlock()

	if fn != nil {
		ptr := fn()
		if ptr == nil {
			return nil, ErrNilLanguage
		}
		return tree_sitter.NewLanguage(ptr), nil
	}
	return fallbackLoader().LoadGrammar()
}

// fallbackLoader returns the shared-library loader, creating one with the
// default search paths if SetGrammarPaths was never called.
func fallbackLoader() *DynamicLoader {
	loaderMu.Lock()
	defer loaderMu.Unlock()
	if loader == nil {
		loader = NewDynamicLoader(DefaultGrammarPaths(""))
	}
	return loader
}
