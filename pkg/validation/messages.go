package validation

import (
	"strings"
	"unicode"

	"github.com/goliatone/go-formkit/pkg/model"
)

// DefaultMessages are keyed by rule name. Placeholders: {label}, {param} and
// {values}.
var DefaultMessages = map[string]string{
	"required":    "{label} is required.",
	"string":      "{label} must be text.",
	"numeric":     "{label} must be a number.",
	"integer":     "{label} must be a whole number.",
	"boolean":     "{label} must be true or false.",
	"array":       "{label} must be a list.",
	"email":       "Please enter a valid email address.",
	"url":         "Please enter a valid URL.",
	"max":         "{label} cannot exceed {param} characters.",
	"max.numeric": "{label} cannot be greater than {param}.",
	"max.array":   "{label} cannot have more than {param} items.",
	"max.file":    "{label} cannot be larger than {param} kilobytes.",
	"min":         "{label} must be at least {param} characters.",
	"min.numeric": "{label} must be at least {param}.",
	"min.array":   "{label} must have at least {param} items.",
	"in":          "Please select a valid {label}.",
	"not_in":      "The selected {label} is not allowed.",
	"date":        "{label} must be a valid date.",
	"date_format": "{label} must match the format {param}.",
	"regex":       "{label} format is invalid.",
	"not_regex":   "{label} format is invalid.",
	"file":        "{label} must be a file.",
	"mimes":       "{label} must be a file of type: {values}.",
	"same":        "{label} must match {param}.",
	"confirmed":   "{label} confirmation does not match.",
	"size":        "{label} must be exactly {param} characters.",
	"size.array":  "{label} must have exactly {param} items.",
	"digits":      "{label} must be {param} digits.",
	"multiple_of": "{label} must be a multiple of {param}.",
	"date_range":  "{label} must be a valid date range.",
}

// Label returns the node label or a humanized name.
func Label(node *model.Node) string {
	if node == nil {
		return ""
	}
	if label := strings.TrimSpace(node.Label); label != "" {
		return label
	}
	return Humanize(node.Name)
}

// Humanize turns "billing_country" or "billingCountry" into "Billing country".
func Humanize(name string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == '.':
			b.WriteRune(' ')
			prevLower = false
			continue
		case unicode.IsUpper(r) && prevLower:
			b.WriteRune(' ')
		}
		b.WriteRune(unicode.ToLower(r))
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	if out == "" {
		return out
	}
	runes := []rune(out)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func (v *Validator) message(node *model.Node, rule model.Rule, variant string) string {
	template := ""
	if node.Validation != nil {
		template = node.Validation.Messages[rule.Name]
	}
	if template == "" && variant != "" {
		template = v.messages[rule.Name+"."+variant]
	}
	if template == "" {
		template = v.messages[rule.Name]
	}
	if template == "" {
		template = "{label} is invalid."
	}
	return strings.NewReplacer(
		"{label}", Label(node),
		"{param}", rule.Param(0),
		"{values}", strings.Join(rule.Params, ", "),
	).Replace(template)
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
