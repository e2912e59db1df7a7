package statement

import "encoding/json"

// JSON encoding of the statement forest, used by the pace-ast dump, the CUE
// contract check, and as policy engine input. Encoding goes through plain
// maps so the "kind" discriminator rides alongside each variant's fields and
// the policy engine receives the same shape rule authors see in dumps.

// Encode converts one statement to its JSON object form.
func Encode(s Statement) map[string]any {
	switch v := s.(type) {
	case *Import:
		return map[string]any{
			"kind":  KindImport,
			"names": orEmpty(v.Names),
			"alias": v.Alias,
			"line":  v.Line,
		}
	case *ImportFrom:
		return map[string]any{
			"kind":   KindImportFrom,
			"module": v.Module,
			"names":  orEmpty(v.Names),
			"alias":  v.Alias,
			"level":  v.Level,
			"line":   v.Line,
		}
	case *ClassDef:
		return map[string]any{
			"kind":  KindClassDef,
			"name":  v.Name,
			"bases": orEmpty(v.Bases),
			"body":  EncodeAll(v.Body),
			"line":  v.Line,
		}
	case *FunctionDef:
		return map[string]any{
			"kind": KindFunctionDef,
			"name": v.Name,
			"args": orEmpty(v.Args),
			"body": EncodeAll(v.Body),
			"line": v.Line,
		}
	case *For:
		return map[string]any{
			"kind":     KindFor,
			"target":   v.Target,
			"iterable": v.Iterable,
			"body":     EncodeAll(v.Body),
			"orelse":   EncodeAll(v.OrElse),
			"line":     v.Line,
		}
	case *With:
		items := make([]map[string]any, 0, len(v.Items))
		for _, item := range v.Items {
			items = append(items, map[string]any{
				"context": item.Context,
				"name":    item.Name,
			})
		}
		return map[string]any{
			"kind":  KindWith,
			"items": items,
			"body":  EncodeAll(v.Body),
			"line":  v.Line,
		}
	case *If:
		return map[string]any{
			"kind":   KindIf,
			"test":   v.Test,
			"body":   EncodeAll(v.Body),
			"orelse": EncodeAll(v.OrElse),
			"line":   v.Line,
		}
	case *Call:
		return encodeCall(v)
	case *Assign:
		m := map[string]any{
			"kind":    KindAssign,
			"targets": orEmpty(v.Targets),
			"line":    v.Line,
		}
		if v.Call != nil {
			m["call"] = encodeCall(v.Call)
		} else {
			m["value"] = v.Value
		}
		return m
	case *Expr:
		return map[string]any{
			"kind":  KindExpr,
			"value": v.Value,
			"line":  v.Line,
		}
	case *Generic:
		return map[string]any{
			"kind": v.NodeType,
			"line": v.Line,
		}
	}
	return map[string]any{"kind": s.Kind()}
}

// EncodeAll converts a forest to its JSON array form.
func EncodeAll(stmts []Statement) []map[string]any {
	out := make([]map[string]any, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, Encode(s))
	}
	return out
}

// Marshal renders a forest as indented JSON.
func Marshal(stmts []Statement) ([]byte, error) {
	return json.MarshalIndent(EncodeAll(stmts), "", "  ")
}

func encodeCall(c *Call) map[string]any {
	kwargs := make(map[string]string, len(c.Kwargs))
	for k, v := range c.Kwargs {
		kwargs[k] = v
	}
	return map[string]any{
		"kind":     KindCall,
		"function": c.Function,
		"args":     orEmpty(c.Args),
		"kwargs":   kwargs,
		"line":     c.Line,
	}
}

// orEmpty keeps empty collections as [] rather than null in the JSON output.
func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
