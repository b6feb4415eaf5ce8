package document

import "sort"

// Pipeline projections for the renewal-pipeline kind. Filter and sort are
// read-only views over the draft's accounts collection: the stored order is
// never mutated, and the criteria themselves live as scalar draft fields
// (stage_filter, sort_by).

// Sort keys accepted by SortAccounts.
const (
	SortByARR     = "arr"
	SortByHealth  = "health_score"
	SortByRenewal = "renewal_date"
	SortByName    = "name"
)

// FilterAccounts returns the accounts matching the stage filter. An empty
// or "all" filter passes everything through.
func FilterAccounts(accounts []any, stage string) []any {
	out := make([]any, 0, len(accounts))
	for _, v := range accounts {
		entity, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if stage == "" || stage == "all" {
			out = append(out, v)
			continue
		}
		if s, _ := entity["stage"].(string); s == stage {
			out = append(out, v)
		}
	}
	return out
}

// SortAccounts returns a new slice ordered by the given key. Numeric keys
// sort descending (largest ARR and healthiest accounts first), string keys
// ascending. An unknown key returns the input order unchanged.
func SortAccounts(accounts []any, by string) []any {
	out := make([]any, len(accounts))
	copy(out, accounts)

	switch by {
	case SortByARR, SortByHealth:
		sort.SliceStable(out, func(i, j int) bool {
			return numberField(out[i], by) > numberField(out[j], by)
		})
	case SortByRenewal, SortByName:
		key := "renewal_date"
		if by == SortByName {
			key = "name"
		}
		sort.SliceStable(out, func(i, j int) bool {
			return stringField(out[i], key) < stringField(out[j], key)
		})
	}
	return out
}

func numberField(v any, key string) float64 {
	entity, ok := v.(map[string]any)
	if !ok {
		return 0
	}
	switch n := entity[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func stringField(v any, key string) string {
	entity, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := entity[key].(string)
	return s
}
