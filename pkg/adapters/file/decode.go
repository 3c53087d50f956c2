package file

import (
	"fmt"
	"reflect"

	"github.com/aretw0/palette/pkg/domain"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// idNamespace seeds the name-based ids of actions declared without one.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/aretw0/palette/actions"))

// document is the top-level shape of an action file: either a bare list of actions
// or a mapping with an "actions" list.
type document struct {
	Actions []map[string]any `yaml:"actions"`
}

// decodeFile parses one file. source names the file in generated ids and errors.
func decodeFile(source string, data []byte) ([]domain.ActionSpec, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	var items []any
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		items = v
	case map[string]any:
		var doc document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		for _, a := range doc.Actions {
			items = append(items, a)
		}
	default:
		return nil, fmt.Errorf("%s: expected a list of actions, got %T", source, raw)
	}

	var out []domain.ActionSpec
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: action #%d: expected a mapping, got %T", source, i, item)
		}
		specs, err := decodeAction(source, "", m)
		if err != nil {
			return nil, err
		}
		out = append(out, specs...)
	}
	return out, nil
}

// decodeAction decodes one action and, depth first, its inline children.
func decodeAction(source, parentID string, m map[string]any) ([]domain.ActionSpec, error) {
	children, _ := m["children"].([]any)
	fields := make(map[string]any, len(m))
	for k, v := range m {
		if k != "children" {
			fields[k] = v
		}
	}

	var spec domain.ActionSpec
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       shortcutHook,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &spec,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(fields); err != nil {
		return nil, fmt.Errorf("%s: action %v: %w", source, m["name"], err)
	}

	if parentID != "" {
		if spec.Parent != "" && spec.Parent != parentID {
			return nil, fmt.Errorf("%s: action %q: parent %q conflicts with enclosing action %q",
				source, spec.Name, spec.Parent, parentID)
		}
		spec.Parent = parentID
	}
	if spec.ID == "" {
		spec.ID = generatedID(source, spec.Parent, spec.Name)
	}

	out := []domain.ActionSpec{spec}
	for i, c := range children {
		cm, ok := c.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: action %q: child #%d is not a mapping", source, spec.ID, i)
		}
		sub, err := decodeAction(source, spec.ID, cm)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

// shortcutHook accepts `shortcut: "g d"` as well as `shortcut: [g, d]`.
func shortcutHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.String && to == reflect.TypeOf([]string(nil)) {
		return domain.SplitShortcut(data.(string)), nil
	}
	return data, nil
}

// generatedID is stable across reloads as long as the action keeps its file,
// parent and name.
func generatedID(source, parentID, name string) string {
	return uuid.NewSHA1(idNamespace, []byte(source+"\x00"+parentID+"\x00"+name)).String()
}
