package override

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/sells-group/profile-review/internal/model"
)

// diffExcluded keys never appear in an override payload.
var diffExcluded = map[string]bool{
	"company_name":         true,
	"official_email":       true,
	"confidence_per_field": true,
}

// Diff returns the top-level profile keys whose value in working differs
// from baseline. A field that is present in baseline but absent in working
// maps to nil so it is sent as an explicit clear. Fields absent on both
// sides, including empty collections, are equal.
func Diff(baseline, working *model.CompanyProfile) model.Overrides {
	out := model.Overrides{}
	if working == nil {
		return out
	}
	if baseline == nil {
		baseline = &model.CompanyProfile{}
	}
	working = working.Clone()

	for key := range profileFields() {
		if diffExcluded[key] {
			continue
		}
		bv, _ := fieldValue(baseline, key)
		wv, _ := fieldValue(working, key)

		b, w := normalize(bv), normalize(wv)
		if cmp.Equal(b, w, cmpopts.EquateEmpty()) {
			continue
		}
		out[key] = w
	}
	return out
}
