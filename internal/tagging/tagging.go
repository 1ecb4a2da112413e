// Package tagging holds the set operations behind entity tag membership.
//
// A membership list is an ordered list of taxonomy ids without duplicates.
// Multi-select editing toggles ids freely; single-select editing of a
// dimension keeps at most one value of that dimension in the list.
package tagging

import "slices"

// Contains reports whether id is in ids.
func Contains(ids []string, id string) bool {
	return slices.Contains(ids, id)
}

// Add appends id unless it is already present. The input is not modified.
func Add(ids []string, id string) []string {
	out := slices.Clone(ids)
	if id == "" || Contains(out, id) {
		return nonNil(out)
	}
	return append(out, id)
}

// Remove drops every occurrence of id. The input is not modified.
func Remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Toggle removes id when present and appends it otherwise.
func Toggle(ids []string, id string) []string {
	if Contains(ids, id) {
		return Remove(ids, id)
	}
	return Add(ids, id)
}

// SelectSingle makes id the only selected value of one dimension.
// dimensionValues is that dimension's full value set; every member is
// removed from ids before id is appended. An empty id clears the
// dimension. Values of other dimensions are left alone.
func SelectSingle(ids, dimensionValues []string, id string) []string {
	out := make([]string, 0, len(ids)+1)
	for _, v := range ids {
		if !slices.Contains(dimensionValues, v) {
			out = append(out, v)
		}
	}
	if id != "" {
		out = append(out, id)
	}
	return out
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
