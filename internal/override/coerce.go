package override

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/sells-group/profile-review/internal/model"
)

// profileFields maps a profile JSON key to its struct field index.
var profileFields = sync.OnceValue(func() map[string]int {
	t := reflect.TypeFor[model.CompanyProfile]()
	out := make(map[string]int, t.NumField())
	for i := range t.NumField() {
		tag := t.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		out[name] = i
	}
	return out
})

// coerce converts raw input into the typed value for kind. A nil result
// means the field becomes absent.
func coerce(kind Kind, raw string) any {
	switch kind {
	case KindNumber:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil
		}
		return n
	case KindCommaList:
		if l := model.SplitList(raw, ","); l != nil {
			return l
		}
		return nil
	case KindLineList:
		if l := model.SplitList(raw, "\n"); l != nil {
			return l
		}
		return nil
	default:
		if raw == "" {
			return nil
		}
		return raw
	}
}

// display renders a stored value as the text an editor starts from.
func display(kind Kind, v reflect.Value) string {
	switch kind {
	case KindNumber:
		if v.IsNil() {
			return ""
		}
		return strconv.Itoa(int(v.Elem().Int()))
	case KindCommaList:
		return strings.Join(v.Interface().([]string), ", ")
	case KindLineList:
		return strings.Join(v.Interface().([]string), "\n")
	default:
		return v.String()
	}
}

// fieldValue returns the addressable struct field for a top-level key.
func fieldValue(p *model.CompanyProfile, key string) (reflect.Value, bool) {
	i, ok := profileFields()[key]
	if !ok {
		return reflect.Value{}, false
	}
	return reflect.ValueOf(p).Elem().Field(i), true
}

// assign stores a coerced value into the working copy.
func assign(p *model.CompanyProfile, f Field, value any) {
	if f.Kind == KindSocial {
		platform := socialPlatform(f.Key)
		if value == nil {
			delete(p.Socials, platform)
			if len(p.Socials) == 0 {
				p.Socials = nil
			}
			return
		}
		if p.Socials == nil {
			p.Socials = model.Socials{}
		}
		p.Socials[platform] = value.(string)
		return
	}

	fv, ok := fieldValue(p, f.Key)
	if !ok {
		return
	}
	if value == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return
	}
	switch f.Kind {
	case KindNumber:
		n := value.(int)
		fv.Set(reflect.ValueOf(&n))
	default:
		fv.Set(reflect.ValueOf(value))
	}
}

// read returns the display text of key in p.
func read(p *model.CompanyProfile, f Field) string {
	if f.Kind == KindSocial {
		return p.Socials[socialPlatform(f.Key)]
	}
	fv, ok := fieldValue(p, f.Key)
	if !ok {
		return ""
	}
	return display(f.Kind, fv)
}

// normalize turns a profile field into a comparable value where every form
// of absence (empty string, nil pointer, empty collection) is nil.
func normalize(v reflect.Value) any {
	switch v.Kind() {
	case reflect.String:
		if v.Len() == 0 {
			return nil
		}
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		if v.Elem().Kind() == reflect.Int {
			return int(v.Elem().Int())
		}
	case reflect.Slice, reflect.Map:
		if v.Len() == 0 {
			return nil
		}
	}
	return v.Interface()
}
