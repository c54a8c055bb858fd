package texture

import (
	"os"
	"path/filepath"
	"strings"
)

// Index maps lowercase texture stems to filesystem paths under a root.
// When several formats share a stem the lossless one wins.
type Index struct {
	root    string
	entries map[string]string // stem.lower() → full path
}

// BuildIndex scans root recursively for supported image files. An empty
// root yields an index that only resolves explicit paths.
func BuildIndex(root string) *Index {
	idx := &Index{root: root, entries: make(map[string]string)}
	if root == "" {
		return idx
	}

	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !Supported(ext) {
			return nil
		}
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

		existing, exists := idx.entries[stem]
		if !exists || extPriority[ext] > extPriority[strings.ToLower(filepath.Ext(existing))] {
			idx.entries[stem] = path
		}
		return nil
	})

	return idx
}

// ResolvePath returns the filesystem path for a texture reference, or
// ("", false). A reference naming an existing file (absolute or relative to
// the root) is used as is; otherwise it is looked up by stem.
func (idx *Index) ResolvePath(texName string) (string, bool) {
	if texName == "" {
		return "", false
	}
	texName = strings.ReplaceAll(texName, "\\", "/")
	candidates := []string{texName}
	if idx.root != "" && !filepath.IsAbs(texName) {
		candidates = append(candidates, filepath.Join(idx.root, texName))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}

	base := filepath.Base(texName)
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
	path, ok := idx.entries[stem]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}
