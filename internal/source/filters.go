package source

// FilterSet holds the ordered show, hide and highlight patterns. A pattern's
// index in its list is the id recorded on matching lines.
type FilterSet struct {
	Show      []string
	Hide      []string
	Highlight []string

	// All requires every show (or hide) pattern to match instead of any
	All bool
}

// Empty reports whether no pattern is configured
func (fs *FilterSet) Empty() bool {
	return fs == nil || len(fs.Show)+len(fs.Hide)+len(fs.Highlight) == 0
}

// Patterns returns every pattern in application order
func (fs *FilterSet) Patterns() []string {
	if fs == nil {
		return nil
	}
	out := make([]string, 0, len(fs.Show)+len(fs.Hide)+len(fs.Highlight))
	out = append(out, fs.Hide...)
	out = append(out, fs.Show...)
	return append(out, fs.Highlight...)
}

