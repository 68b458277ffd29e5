package r2gate

import "strings"

// DefaultNamespace is the logical folder all object keys live under.
const DefaultNamespace = "content/md"

// Namespace confines object keys to a fixed prefix of the bucket.
// Filenames are concatenated onto the prefix as-is.
type Namespace struct {
	base string
}

// NewNamespace returns a Namespace rooted at base. Leading and trailing
// slashes are trimmed; an empty base falls back to DefaultNamespace.
func NewNamespace(base string) Namespace {
	base = strings.Trim(base, "/")
	if base == "" {
		base = DefaultNamespace
	}
	return Namespace{base: base}
}

// Base returns the namespace prefix without a trailing slash.
func (n Namespace) Base() string {
	return n.base
}

// FullPath returns the object key for filename.
func (n Namespace) FullPath(filename string) string {
	return n.base + "/" + filename
}

// ListPrefix returns the key prefix to list for an optional caller sub-prefix.
func (n Namespace) ListPrefix(prefix string) string {
	return n.base + "/" + prefix
}

// Strip removes the namespace from key. Keys outside the namespace are returned unchanged.
func (n Namespace) Strip(key string) string {
	if rest, ok := strings.CutPrefix(key, n.base+"/"); ok {
		return rest
	}
	return key
}
