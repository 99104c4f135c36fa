package entity

// Document is a scanned input file from the support or transfer directory.
// Read-only once scanned.
type Document struct {
	Path   string `json:"path"`
	Name   string `json:"name"`   // base name without extension
	Ext    string `json:"ext"`    // normalized, no dot
	Format string `json:"format"` // constants.PDF | constants.IMAGE
}
