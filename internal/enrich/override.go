package enrich

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"matseed/internal/catalog"
	"matseed/internal/value"
)

// Override is one service-life rule. Rules are tried in table order and the
// first match wins.
type Override struct {
	Pattern     string
	Flags       string
	Categories  []string // empty means every category
	ServiceLife value.Value

	re *regexp.Regexp
}

// NewOverride compiles a rule. flags uses the JavaScript letters: i, m and s
// map to the Go inline flags, g, u and y are accepted and ignored, anything
// else is an error. A nil flags pointer means the default "i".
func NewOverride(pattern string, flags *string, categories []string, serviceLife value.Value) (Override, error) {
	f := "i"
	if flags != nil {
		f = *flags
	}
	var inline strings.Builder
	for _, c := range f {
		switch c {
		case 'i', 'm', 's':
			if !strings.ContainsRune(inline.String(), c) {
				inline.WriteRune(c)
			}
		case 'g', 'u', 'y':
		default:
			return Override{}, fmt.Errorf("unsupported regexp flag %q", c)
		}
	}
	expr := pattern
	if inline.Len() > 0 {
		expr = "(?" + inline.String() + ")" + pattern
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return Override{}, fmt.Errorf("compile %q: %w", pattern, err)
	}
	return Override{
		Pattern:     pattern,
		Flags:       f,
		Categories:  categories,
		ServiceLife: serviceLife,
		re:          re,
	}, nil
}

// Matches reports whether the rule applies to m.
func (o Override) Matches(m catalog.MaterialRecord) bool {
	if len(o.Categories) > 0 && !slices.Contains(o.Categories, m.Category) {
		return false
	}
	return o.re.MatchString(strings.ToLower(m.ID + " " + m.Name))
}

// ServiceLife resolves the service life of m: the first matching override,
// then the category default, then null.
func ServiceLife(m catalog.MaterialRecord, overrides []Override, defaults *value.Object) value.Value {
	for _, o := range overrides {
		if o.Matches(m) {
			return o.ServiceLife
		}
	}
	if v, ok := defaults.Get(m.Category); ok {
		return v
	}
	return value.Null{}
}

func decodeOverrides(v value.Value) ([]Override, error) {
	arr, ok := value.AsArray(v)
	if !ok {
		return nil, fmt.Errorf("expected an array of rules, got %s", v.Kind())
	}
	out := make([]Override, 0, len(arr))
	for i, item := range arr {
		obj, ok := value.AsObject(item)
		if !ok {
			return nil, fmt.Errorf("rule %d: expected an object, got %s", i, item.Kind())
		}
		pv, _ := obj.Get("pattern")
		pattern, ok := value.AsString(pv)
		if !ok {
			return nil, fmt.Errorf("rule %d: pattern must be a string", i)
		}
		var flags *string
		if fv, ok := obj.Get("flags"); ok && !value.IsNull(fv) {
			s, ok := value.AsString(fv)
			if !ok {
				return nil, fmt.Errorf("rule %d: flags must be a string", i)
			}
			flags = &s
		}
		var categories []string
		if cv, ok := obj.Get("categories"); ok && !value.IsNull(cv) {
			ca, ok := value.AsArray(cv)
			if !ok {
				return nil, fmt.Errorf("rule %d: categories must be an array", i)
			}
			for _, c := range ca {
				s, ok := value.AsString(c)
				if !ok {
					return nil, fmt.Errorf("rule %d: categories must hold strings", i)
				}
				categories = append(categories, s)
			}
		}
		sl, ok := obj.Get("serviceLife")
		if !ok {
			return nil, fmt.Errorf("rule %d: missing serviceLife", i)
		}
		rule, err := NewOverride(pattern, flags, categories, sl)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		out = append(out, rule)
	}
	return out, nil
}
