package resolver

// SourceLocation identifies a document or sub-node: the absolute file path
// of the owning document plus a JSON Pointer fragment within it (empty for
// the document root). It is the unit of identity for memoization and cycle
// detection.
type SourceLocation struct {
	// FilePath is the absolute path of the owning document
	FilePath string
	// Pointer is the JSON Pointer fragment, e.g. "/components/schemas/Pet".
	// Empty means the document root.
	Pointer string
}

// Key returns a stable string identity for map keys.
func (l SourceLocation) Key() string {
	return l.FilePath + "#" + l.Pointer
}

// String returns the location in file#fragment form.
func (l SourceLocation) String() string {
	return l.Key()
}
