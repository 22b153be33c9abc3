package selection

import (
	"featprep/domain/table"
	"featprep/internal/errors"
)

// Select projects tbl onto ranked ∪ mandatory ∪ {target} and drops every
// row with a missing cell. Columns come out as ranked names, then mandatory
// names not already present, then the target.
func Select(tbl *table.Table, ranked, mandatory []string, target string) (*table.Table, error) {
	if !tbl.Has(target) {
		return nil, errors.ConfigurationError("target column %q not found", target)
	}

	seen := make(map[string]bool, len(ranked)+len(mandatory)+1)
	names := make([]string, 0, len(ranked)+len(mandatory)+1)
	add := func(name string) error {
		if seen[name] {
			return nil
		}
		if !tbl.Has(name) {
			return errors.MissingColumnError(name)
		}
		seen[name] = true
		names = append(names, name)
		return nil
	}

	seen[target] = true
	for _, n := range ranked {
		if err := add(n); err != nil {
			return nil, err
		}
	}
	for _, n := range mandatory {
		if err := add(n); err != nil {
			return nil, err
		}
	}
	names = append(names, target)

	projected, err := tbl.Project(names)
	if err != nil {
		return nil, errors.Wrap(err, "projecting selected columns")
	}
	return projected.DropIncomplete(), nil
}
