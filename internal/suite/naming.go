package suite

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	wordStart  = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	lowerUpper = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// CamelToSnake converts a CamelCase identifier to snake_case.
// HTTPRequest becomes http_request, FeetToMeter becomes feet_to_meter.
func CamelToSnake(name string) string {
	s := wordStart.ReplaceAllString(name, "${1}_${2}")
	return strings.ToLower(lowerUpper.ReplaceAllString(s, "${1}_${2}"))
}

// SymbolName derives the targeted symbol from a test class name using the
// default conventions: Test_Somme gives somme.
func SymbolName(className string) string {
	name, _ := DefaultOptions().SymbolName(className)
	return name
}

// GroupName is the test class name expected for a symbol.
func GroupName(symbol string) string {
	return DefaultOptions().GroupName(symbol)
}

// SymbolName strips the class prefix and one optional separator, then
// converts the rest to snake_case. ok is false when the prefix is absent.
func (o Options) SymbolName(className string) (string, bool) {
	rest, ok := strings.CutPrefix(className, o.ClassPrefix)
	if !ok {
		return "", false
	}
	if o.Separator != "" {
		rest = strings.TrimPrefix(rest, o.Separator)
	}
	return CamelToSnake(rest), true
}

// GroupName builds the CamelCase class name that maps back to symbol.
func (o Options) GroupName(symbol string) string {
	var b strings.Builder
	b.WriteString(o.ClassPrefix)
	for _, part := range strings.Split(symbol, "_") {
		if part == "" {
			continue
		}
		r := []rune(part)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}
