package models

// FileRecord identifies a regular file discovered during a scan
type FileRecord struct {
	// Path is the absolute path of the file
	Path string `json:"path"`

	// Size in bytes, obtained from metadata (the content is not read)
	Size int64 `json:"size"`
}

// DuplicateGroup is a set of two or more paths whose content is identical
type DuplicateGroup struct {
	// Size is the common byte size of every member
	Size int64 `json:"size"`

	// Hash is the common content digest (hex) of every member
	Hash string `json:"hash"`

	// Paths are the member files, in the order they were discovered
	Paths []string `json:"paths"`
}

// Count returns the number of member paths
func (g *DuplicateGroup) Count() int {
	return len(g.Paths)
}

// WastedBytes returns the bytes that could be reclaimed by keeping a
// single copy of the group
func (g *DuplicateGroup) WastedBytes() int64 {
	if len(g.Paths) < 2 {
		return 0
	}
	return g.Size * int64(len(g.Paths)-1)
}

// SkippedFile records a path that was dropped from the scan along with
// the reason why
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}
