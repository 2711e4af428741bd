package scholar

// ResultSet holds the papers returned by one search, in the order the index
// ranked them.
type ResultSet struct {
	entries []Paper
	// Skipped counts records dropped under SkipMalformed.
	Skipped int
}

// NewResultSet wraps papers without reordering them.
func NewResultSet(papers []Paper) *ResultSet {
	return &ResultSet{entries: append([]Paper(nil), papers...)}
}

func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// At returns the paper at idx. The second value is false when idx is out of
// range.
func (r *ResultSet) At(idx int) (Paper, bool) {
	if r == nil || idx < 0 || idx >= len(r.entries) {
		return Paper{}, false
	}
	return r.entries[idx], true
}

// Entries returns a copy of the papers.
func (r *ResultSet) Entries() []Paper {
	if r == nil {
		return nil
	}
	return append([]Paper(nil), r.entries...)
}
