package catalog

import (
	"fmt"
	"strings"

	"matseed/internal/value"
)

// DecodePalette converts the shared RAL table into color options. Each entry
// supplies a label (or a code and name joined by a space, or a name alone)
// and a tone (or hex).
func DecodePalette(v value.Value) ([]ColorOption, error) {
	arr, ok := value.AsArray(v)
	if !ok {
		return nil, fmt.Errorf("catalog: palette: expected an array, got %s", v.Kind())
	}
	out := make([]ColorOption, 0, len(arr))
	for i, e := range arr {
		obj, ok := value.AsObject(e)
		if !ok {
			return nil, fmt.Errorf("catalog: palette entry %d: expected an object, got %s", i, e.Kind())
		}
		label := paletteLabel(obj)
		if label == "" {
			return nil, fmt.Errorf("catalog: palette entry %d: no label, code or name", i)
		}
		opt := ColorOption{Label: label}
		for _, key := range []string{"tone", "hex"} {
			if s, ok := text(obj, key); ok {
				opt.Tone = &s
				break
			}
		}
		out = append(out, opt)
	}
	return out, nil
}

func paletteLabel(obj *value.Object) string {
	if s, ok := text(obj, "label"); ok {
		return s
	}
	code, hasCode := text(obj, "code")
	name, hasName := text(obj, "name")
	switch {
	case hasCode && hasName:
		return code + " " + name
	case hasName:
		return name
	case hasCode:
		return code
	}
	return ""
}

func text(obj *value.Object, key string) (string, bool) {
	v, ok := obj.Get(key)
	if !ok {
		return "", false
	}
	s, ok := value.AsString(v)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}
