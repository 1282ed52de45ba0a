package model

import "strings"

// Rule is a parsed validation rule such as "max:255" or "in:a,b".
type Rule struct {
	Name   string
	Params []string
}

// ParseRule splits a rule string at the first colon. Parameters are comma
// separated, except for "regex" which keeps its pattern intact.
func ParseRule(raw string) Rule {
	raw = strings.TrimSpace(raw)
	name, params, found := strings.Cut(raw, ":")
	rule := Rule{Name: strings.ToLower(strings.TrimSpace(name))}
	if !found {
		return rule
	}
	if rule.Name == "regex" || rule.Name == "not_regex" {
		rule.Params = []string{params}
		return rule
	}
	for _, param := range strings.Split(params, ",") {
		rule.Params = append(rule.Params, strings.TrimSpace(param))
	}
	return rule
}

func (r Rule) String() string {
	if len(r.Params) == 0 {
		return r.Name
	}
	return r.Name + ":" + strings.Join(r.Params, ",")
}

// Param returns the i-th parameter or "".
func (r Rule) Param(i int) string {
	if i < 0 || i >= len(r.Params) {
		return ""
	}
	return r.Params[i]
}

// HasRule reports whether the node declares an explicit rule of the supplied
// name.
func (n *Node) HasRule(name string) bool {
	if n == nil || n.Validation == nil {
		return false
	}
	for _, raw := range n.Validation.Rules {
		if ParseRule(raw).Name == name {
			return true
		}
	}
	return false
}
