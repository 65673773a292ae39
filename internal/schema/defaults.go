package schema

// applyDefaults inserts the default of every declared property that is absent
// from inst, then descends into object-valued properties whose schemas
// declare properties of their own. Values already present are never touched,
// so applying defaults twice is a no-op.
func applyDefaults(sch map[string]any, inst any) {
	obj, ok := inst.(map[string]any)
	if !ok {
		return
	}
	props, ok := sch["properties"].(map[string]any)
	if !ok {
		return
	}
	for name, raw := range props {
		propSchema, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if _, present := obj[name]; !present {
			if def, has := propSchema["default"]; has {
				obj[name] = deepCopy(def)
			}
		}
		if child, ok := obj[name]; ok {
			applyDefaults(propSchema, child)
		}
	}
}

// deepCopy clones JSON-shaped values so defaults are never shared between
// the schema and the documents they are inserted into.
func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, v := range val {
			m[k] = deepCopy(v)
		}
		return m
	case []any:
		a := make([]any, len(val))
		for i, v := range val {
			a[i] = deepCopy(v)
		}
		return a
	default:
		return val
	}
}
