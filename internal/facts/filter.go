package facts

// FilterTablesByNames returns a new Tables object containing only rows whose
// primary name is present in the provided name set. Calls are keyed by the
// called function, imports by module, and the remaining tables by the symbol
// they introduce.
func FilterTablesByNames(tables Tables, names map[string]bool) Tables {
	if len(names) == 0 {
		return emptyTables()
	}
	out := emptyTables()

	for _, row := range tables.Calls {
		if names[row.Function] {
			out.Calls = append(out.Calls, row)
		}
	}
	for _, row := range tables.Imports {
		if names[row.Module] {
			out.Imports = append(out.Imports, row)
		}
	}
	for _, row := range tables.ImportFroms {
		if names[row.Name] {
			out.ImportFroms = append(out.ImportFroms, row)
		}
	}
	for _, row := range tables.Functions {
		if names[row.Name] {
			out.Functions = append(out.Functions, row)
		}
	}
	for _, row := range tables.Classes {
		if names[row.Name] {
			out.Classes = append(out.Classes, row)
		}
	}
	for _, row := range tables.Variables {
		if names[row.Name] {
			out.Variables = append(out.Variables, row)
		}
	}

	return out
}

// FilterDeltaByNames returns a new Delta containing only rows for the specified names.
func FilterDeltaByNames(delta Delta, names map[string]bool) Delta {
	if len(names) == 0 {
		return Delta{
			Added:   emptyTables(),
			Removed: emptyTables(),
		}
	}
	return Delta{
		Added:   FilterTablesByNames(delta.Added, names),
		Removed: FilterTablesByNames(delta.Removed, names),
	}
}
