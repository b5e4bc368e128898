// Package models defines the domain types for memex.
package models

// Note is the structured representation of one markdown file as stored
// in the index. Notes are identified by the (Vault, Path) pair.
type Note struct {
	Path        string   `json:"path"`
	Vault       string   `json:"vault"`
	Title       string   `json:"title"`
	Aliases     []string `json:"aliases"`
	Tags        []string `json:"tags"`
	Content     string   `json:"content"`
	Mtime       float64  `json:"mtime"`
	ContentHash string   `json:"content_hash"`
}

// NoteMeta is a lightweight descriptor returned by vault discovery.
type NoteMeta struct {
	Path  string  `json:"path"`
	Mtime float64 `json:"mtime"`
}

// Outlink is one wikilink edge leaving a note. Resolved holds every
// note path in the same vault whose title matches the raw target;
// empty means the target is unresolved.
type Outlink struct {
	Target   string   `json:"target"`
	Resolved []string `json:"resolved_paths"`
}
