// Package tree_sitter_coral exposes the compiled-in coral grammar. The
// automaton is produced by the tree-sitter generated C code; this package
// declares its entry point and registers it with the bridge when imported:
//
//	import (
//	    coral "github.com/corey/tree-sitter-coral"
//	    _ "github.com/corey/tree-sitter-coral/bindings/go"
//	)
//
// The grammar object must be available at link time (the generated parser.c
// compiled into the build, or an archive passed via CGO_LDFLAGS). A missing
// tree_sitter_coral symbol fails the build — there is no runtime fallback
// on this path.
package tree_sitter_coral

/*
#cgo CFLAGS: -std=c11 -fPIC
typedef struct TSLanguage TSLanguage;
const TSLanguage *tree_sitter_coral(void);
*/
import "C"

import (
	"unsafe"

	coral "github.com/corey/tree-sitter-coral"
)

// Language returns the coral grammar automaton as an opaque pointer for
// tree_sitter.NewLanguage. The pointer is owned by the grammar's static
// state and stays valid for the process lifetime; it is passed through
// untransformed.
func Language() unsafe.Pointer {
	return unsafe.Pointer(C.tree_sitter_coral())
}

func init() {
	coral.RegisterEntryPoint(Language)
}
