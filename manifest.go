package coral

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// GrammarInfo describes the packaged grammar for installers and hosts.
type GrammarInfo struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Extensions []string `json:"extensions"`
	RepoURL    string   `json:"repo_url"`
	Sizes      PlatSize `json:"sizes,omitempty"`
	SHA256     PlatHash `json:"sha256,omitempty"`
}

// PlatSize maps platform (e.g. "linux-amd64") to file size in bytes.
type PlatSize map[string]int64

// PlatHash maps platform to SHA256 hex digest.
type PlatHash map[string]string

// Manifest is the distribution record for the grammar shared library.
type Manifest struct {
	Version int         `json:"version"`
	BaseURL string      `json:"base_url"`
	Grammar GrammarInfo `json:"grammar"`
}

// LoadManifest reads a manifest from a JSON file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// BuiltinManifest returns the embedded grammar metadata, so hosts can
// inspect the grammar without network access.
func BuiltinManifest() *Manifest {
	return &Manifest{
		Version: 1,
		BaseURL: "https://github.com/corey/tree-sitter-coral/releases/download",
		Grammar: GrammarInfo{
			Name:       LanguageName,
			Version:    "0.1.0",
			Extensions: []string{".coral"},
			RepoURL:    "https://github.com/corey/tree-sitter-coral",
		},
	}
}

// PlatformString returns the OS-arch string for the current platform,
// e.g. "linux-amd64", "darwin-arm64".
func PlatformString() string {
	return runtime.GOOS + "-" + runtime.GOARCH
}

// GlobalGrammarDir returns the global grammar directory: ~/.coral/grammars/
func GlobalGrammarDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".coral", "grammars")
}
