package crud

import "github.com/samber/lo"

// HiddenColumns never leave the service.
var HiddenColumns = []string{"password", "remember_token"}

// Record is a row keyed by column name.
type Record map[string]any

// Filter keeps the payload keys listed in allowed, values untouched.
func Filter(payload Record, allowed []string) Record {
	return lo.PickByKeys(payload, allowed)
}

func hide(rec Record) Record {
	if rec == nil {
		return nil
	}
	return lo.OmitByKeys(rec, HiddenColumns)
}
