package compose

import (
	"strings"

	"github.com/provide-io/craftlaunch/pkg/launch/metadata"
	"github.com/provide-io/craftlaunch/pkg/launch/rules"
)

// Arguments renders templates into one space-separated string.
//
// Literals get a single placeholder substitution; conditional blocks are kept
// only when their rules allow env. extra is appended verbatim after the
// templates. With quoteAll every token is double-quoted for /bin/sh unless it
// already is. Identical inputs always give identical output.
func Arguments(templates []metadata.ArgumentTemplate, values map[string]string, env rules.Environment, extra []string, quoteAll bool) string {
	tokens := Tokens(templates, values, env, extra)
	if quoteAll {
		return DialectPOSIX.Join(tokens)
	}
	return strings.Join(tokens, " ")
}

// Tokens is Arguments before quoting and joining.
func Tokens(templates []metadata.ArgumentTemplate, values map[string]string, env rules.Environment, extra []string) []string {
	tokens := make([]string, 0, len(templates)+len(extra))
	for _, tmpl := range templates {
		if !tmpl.IsConditional() {
			tokens = append(tokens, ProcessPlaceholder(tmpl.Literal, values))
			continue
		}
		if !rules.IsAllowed(tmpl.Conditional.Rules, env) {
			continue
		}
		for _, v := range tmpl.Conditional.Values {
			tokens = append(tokens, ProcessPlaceholder(v, values))
		}
	}
	return append(tokens, extra...)
}

// ProcessPlaceholder replaces the first ${key} in s when key is in values.
// Unknown keys and strings without a placeholder are returned unchanged.
func ProcessPlaceholder(s string, values map[string]string) string {
	start := strings.Index(s, "${")
	if start < 0 {
		return s
	}
	end := strings.Index(s[start:], "}")
	if end < 0 {
		return s
	}
	end += start

	value, ok := values[s[start+2:end]]
	if !ok {
		return s
	}
	return s[:start] + value + s[end+1:]
}

// Quote double-quotes tok for /bin/sh unless it is already quoted.
func Quote(tok string) string {
	return DialectPOSIX.Quote(tok)
}

func isQuoted(tok string) bool {
	return len(tok) >= 2 && strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`)
}
