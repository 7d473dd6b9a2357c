package core

import "fmt"

// Project returns a new table holding only the named columns, in the given
// order. An empty selection keeps every column. Repeated names keep their
// first position. The source table is never modified.
func Project(t *Table, names []string) (*Table, error) {
	if len(names) == 0 {
		return t.Clone(), nil
	}

	out := &Table{Columns: make([]*Column, 0, len(names))}
	picked := make(map[string]bool, len(names))
	for _, name := range names {
		if picked[name] {
			continue
		}
		col, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("project %q: %w", name, ErrColumnNotFound)
		}
		picked[name] = true
		out.Columns = append(out.Columns, col.clone())
	}
	return out, nil
}
