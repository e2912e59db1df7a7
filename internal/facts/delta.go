package facts

// Delta captures added and removed fact rows between two snapshots.
type Delta struct {
	Added   Tables `json:"added"`
	Removed Tables `json:"removed"`
}

// ComputeDelta computes row-level additions and removals between two
// snapshots, typically successive attempts at the same exercise.
func ComputeDelta(prev, next Tables) Delta {
	return Delta{
		Added:   diffTables(prev, next),
		Removed: diffTables(next, prev),
	}
}

func diffTables(from, to Tables) Tables {
	out := emptyTables()

	out.Calls = diffCallRows(from.Calls, to.Calls)
	out.Imports = diffImportRows(from.Imports, to.Imports)
	out.ImportFroms = diffImportFromRows(from.ImportFroms, to.ImportFroms)
	out.Functions = diffFunctionRows(from.Functions, to.Functions)
	out.Classes = diffClassRows(from.Classes, to.Classes)
	out.Variables = diffVariableRows(from.Variables, to.Variables)

	return out
}

func emptyTables() Tables {
	return Tables{
		Calls:       []CallRow{},
		Imports:     []ImportRow{},
		ImportFroms: []ImportFromRow{},
		Functions:   []FunctionRow{},
		Classes:     []ClassRow{},
		Variables:   []VariableRow{},
	}
}

func diffCallRows(from, to []CallRow) []CallRow {
	return diffRows(from, to, func(r CallRow) string {
		return r.Function + "|" + r.Args + "|" + r.Kwargs + "|" + r.Assigned + "|" + intKey(r.Line)
	})
}

func diffImportRows(from, to []ImportRow) []ImportRow {
	return diffRows(from, to, func(r ImportRow) string {
		return r.Module + "|" + r.Alias + "|" + intKey(r.Line)
	})
}

func diffImportFromRows(from, to []ImportFromRow) []ImportFromRow {
	return diffRows(from, to, func(r ImportFromRow) string {
		return r.Module + "|" + r.Name + "|" + r.Alias + "|" + intKey(r.Level) + "|" + intKey(r.Line)
	})
}

func diffFunctionRows(from, to []FunctionRow) []FunctionRow {
	return diffRows(from, to, func(r FunctionRow) string {
		return r.Name + "|" + r.Params + "|" + intKey(r.Line)
	})
}

func diffClassRows(from, to []ClassRow) []ClassRow {
	return diffRows(from, to, func(r ClassRow) string {
		return r.Name + "|" + r.Bases + "|" + intKey(r.Line)
	})
}

func diffVariableRows(from, to []VariableRow) []VariableRow {
	return diffRows(from, to, func(r VariableRow) string {
		return r.Name + "|" + r.Value + "|" + boolKey(r.Resolved)
	})
}

func diffRows[T any](from, to []T, key func(T) string) []T {
	fromSet := make(map[string]T, len(from))
	for _, row := range from {
		fromSet[key(row)] = row
	}
	var diff []T
	for _, row := range to {
		rowKey := key(row)
		if _, ok := fromSet[rowKey]; !ok {
			diff = append(diff, row)
		}
	}
	if diff == nil {
		diff = []T{}
	}
	return diff
}

func boolKey(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func intKey(v int) string {
	if v == 0 {
		return "0"
	}
	return itoa(v)
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
