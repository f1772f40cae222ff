package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"
)

// ImportsScript is the hook script deciding which import lines an exercise
// template needs.
const ImportsScript = "imports.risor"

// ImportRule adds Line to the template when Marker occurs in the code.
type ImportRule struct {
	Marker string
	Line   string
}

// DetectImports runs the imports hook over code with the rules exposed as
// a list of {"marker", "line"} maps. The script must evaluate to a list of
// strings; duplicates are dropped, first occurrence wins.
func (r *Runtime) DetectImports(ctx context.Context, code string, rules []ImportRule) ([]string, error) {
	ruleObjs := make([]object.Object, len(rules))
	for i, rule := range rules {
		ruleObjs[i] = object.NewMap(map[string]object.Object{
			"marker": object.NewString(rule.Marker),
			"line":   object.NewString(rule.Line),
		})
	}

	result, err := r.RunScript(ctx, ImportsScript, map[string]any{
		"code":  code,
		"rules": object.NewList(ruleObjs),
	})
	if err != nil {
		return nil, err
	}
	return stringList(ImportsScript, result)
}

func stringList(label string, result object.Object) ([]string, error) {
	list, ok := result.(*object.List)
	if !ok {
		return nil, fmt.Errorf("runtime: script %s: expected list result, got %s", label, typeName(result))
	}
	var out []string
	seen := make(map[string]bool)
	for _, item := range list.Value() {
		s, ok := item.(*object.String)
		if !ok {
			return nil, fmt.Errorf("runtime: script %s: expected string items, got %s", label, typeName(item))
		}
		if v := s.Value(); !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out, nil
}

func typeName(o object.Object) string {
	if o == nil {
		return "nothing"
	}
	return string(o.Type())
}
