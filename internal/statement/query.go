package statement

// Query operations over a statement forest. All of them search the slice
// they are given, in order, without recursing into nested bodies; pass a
// Flatten result to search everywhere. Absence is a normal result (nil or an
// empty slice), never an error.

// FindCalls returns every statement that calls name: a bare Call whose
// function text equals name, or an Assign whose value is such a call. Both
// forms are returned unwrapped so callers can inspect assignment shape.
func FindCalls(stmts []Statement, name string) []Statement {
	var found []Statement
	for _, s := range stmts {
		switch v := s.(type) {
		case *Call:
			if v.Function == name {
				found = append(found, s)
			}
		case *Assign:
			if v.Call != nil && v.Call.Function == name {
				found = append(found, s)
			}
		}
	}
	return found
}

// FindFunctionDef returns the first function definition with the given name.
func FindFunctionDef(stmts []Statement, name string) *FunctionDef {
	for _, s := range stmts {
		if fn, ok := s.(*FunctionDef); ok && fn.Name == name {
			return fn
		}
	}
	return nil
}

// FindClassDef returns the first class definition with the given name.
func FindClassDef(stmts []Statement, name string) *ClassDef {
	for _, s := range stmts {
		if cls, ok := s.(*ClassDef); ok && cls.Name == name {
			return cls
		}
	}
	return nil
}

// FindImport returns the first import statement whose names include module
// and whose alias equals alias exactly ("" matches no alias).
func FindImport(stmts []Statement, module, alias string) *Import {
	for _, s := range stmts {
		imp, ok := s.(*Import)
		if !ok || imp.Alias != alias {
			continue
		}
		for _, n := range imp.Names {
			if n == module {
				return imp
			}
		}
	}
	return nil
}

// FindImportFrom returns the first from-import whose module and alias equal
// exactly and whose imported names equal names as a set, order-insensitive.
func FindImportFrom(stmts []Statement, module string, names []string, alias string) *ImportFrom {
	want := toSet(names)
	for _, s := range stmts {
		imp, ok := s.(*ImportFrom)
		if !ok || imp.Module != module || imp.Alias != alias {
			continue
		}
		if equalSets(toSet(imp.Names), want) {
			return imp
		}
	}
	return nil
}

// Flatten returns stmts with every nested body and orelse spliced in after
// its parent, pre-order. The result shares the original statements.
func Flatten(stmts []Statement) []Statement {
	var flat []Statement
	var walk func([]Statement)
	walk = func(list []Statement) {
		for _, s := range list {
			flat = append(flat, s)
			switch v := s.(type) {
			case *ClassDef:
				walk(v.Body)
			case *FunctionDef:
				walk(v.Body)
			case *For:
				walk(v.Body)
				walk(v.OrElse)
			case *With:
				walk(v.Body)
			case *If:
				walk(v.Body)
				walk(v.OrElse)
			}
		}
	}
	walk(stmts)
	return flat
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func equalSets(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
