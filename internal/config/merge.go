package config

// Merge deep-merges override into base and returns a new map. When both sides
// hold a mapping at the same key the merge recurses; otherwise the override
// value replaces the base value wholesale, including type changes. Neither
// input is mutated.
func Merge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, ov := range override {
		if bm, ok := out[k].(map[string]any); ok {
			if om, ok := ov.(map[string]any); ok {
				out[k] = Merge(bm, om)
				continue
			}
		}
		out[k] = ov
	}
	return out
}
