package table

// Registry is a snapshot of column kinds, built once per pipeline run and
// handed to the stages that need to split numeric from categorical columns.
type Registry struct {
	names []string
	kinds map[string]Kind
}

// NewRegistry records the kind of every column currently in t
func NewRegistry(t *Table) Registry {
	r := Registry{
		names: t.Names(),
		kinds: make(map[string]Kind, t.Width()),
	}
	for _, c := range t.cols {
		r.kinds[c.Name()] = c.Kind()
	}
	return r
}

// Kind returns the recorded kind of name
func (r Registry) Kind(name string) (Kind, bool) {
	k, ok := r.kinds[name]
	return k, ok
}

// Numeric returns the numeric columns in table order
func (r Registry) Numeric() []string { return r.ofKind(KindNumeric) }

// Categorical returns the categorical columns in table order
func (r Registry) Categorical() []string { return r.ofKind(KindCategorical) }

func (r Registry) ofKind(kind Kind) []string {
	var out []string
	for _, n := range r.names {
		if r.kinds[n] == kind {
			out = append(out, n)
		}
	}
	return out
}
