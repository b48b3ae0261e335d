package catalog

// Merge combines per-source item lists into one map keyed by title.
// Lists are applied in argument order and a later list overwrites an
// earlier one for the same title, whole record, no field-level merging.
// Callers that fetch sources concurrently must still pass lists here in
// their declared order so results stay deterministic.
func Merge(lists ...[]Item) map[string]Item {
	merged := make(map[string]Item)
	for _, list := range lists {
		for _, it := range list {
			merged[it.Title] = it
		}
	}
	return merged
}
