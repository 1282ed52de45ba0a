package validation

import (
	"math"
	"net/mail"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-formkit/pkg/model"
)

// Empty reports whether value counts as missing for required checks.
func Empty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

// check returns "" when value passes rule, otherwise the message variant to
// report ("numeric", "array", "file" or "" for the base message) and false.
func check(rule model.Rule, value any, get func(string) any) (string, bool) {
	switch rule.Name {
	case "required":
		return "", !Empty(value)
	case "string":
		_, ok := value.(string)
		return "", ok
	case "numeric":
		_, ok := number(value)
		return "", ok
	case "integer":
		n, ok := number(value)
		return "", ok && n == float64(int64(n))
	case "boolean":
		switch v := value.(type) {
		case bool:
			return "", true
		case float64:
			return "", v == 0 || v == 1
		case string:
			switch v {
			case "0", "1", "true", "false":
				return "", true
			}
		}
		return "", false
	case "array":
		_, ok := list(value)
		if !ok {
			_, ok = value.(map[string]any)
		}
		return "", ok
	case "email":
		s, _ := value.(string)
		addr, err := mail.ParseAddress(s)
		return "", err == nil && addr.Address == s
	case "url":
		s, _ := value.(string)
		u, err := url.ParseRequestURI(s)
		return "", err == nil && u.Scheme != "" && u.Host != ""
	case "max", "min":
		return bounds(rule, value)
	case "in", "not_in":
		allowed := make(map[string]struct{}, len(rule.Params))
		for _, p := range rule.Params {
			allowed[p] = struct{}{}
		}
		values, ok := list(value)
		if !ok {
			values = []any{value}
		}
		for _, item := range values {
			_, found := allowed[model.Stringify(item)]
			if found == (rule.Name == "not_in") {
				return "", false
			}
		}
		return "", true
	case "date":
		s, _ := value.(string)
		return "", parseDate(s)
	case "date_format":
		s, _ := value.(string)
		_, err := time.Parse(goLayout(rule.Param(0)), s)
		return "", err == nil
	case "regex", "not_regex":
		re, err := compilePattern(rule.Param(0))
		if err != nil {
			return "", false
		}
		matched := re.MatchString(model.Stringify(value))
		return "", matched == (rule.Name == "regex")
	case "file":
		for _, f := range files(value) {
			if f.key == "" {
				return "", false
			}
		}
		return "", true
	case "mimes":
		allowed := make(map[string]struct{}, len(rule.Params))
		for _, p := range rule.Params {
			allowed[strings.ToLower(p)] = struct{}{}
		}
		for _, f := range files(value) {
			ext := strings.ToLower(strings.TrimPrefix(path.Ext(f.name()), "."))
			if _, ok := allowed[ext]; !ok {
				return "", false
			}
		}
		return "", true
	case "same":
		return "", model.Stringify(get(rule.Param(0))) == model.Stringify(value)
	case "size":
		size, err := strconv.Atoi(rule.Param(0))
		if err != nil {
			return "", true
		}
		if items, ok := list(value); ok {
			return "array", len(items) == size
		}
		return "", utf8.RuneCountInString(model.Stringify(value)) == size
	case "digits":
		size, err := strconv.Atoi(rule.Param(0))
		s := model.Stringify(value)
		if err != nil || len(s) != size {
			return "", false
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				return "", false
			}
		}
		return "", true
	case "multiple_of":
		step, err := strconv.ParseFloat(rule.Param(0), 64)
		n, ok := number(value)
		if err != nil || step <= 0 {
			return "", true
		}
		return "", ok && math.Abs(math.Remainder(n, step)) < 1e-9
	case "date_range":
		return "", dateRange(value, rule.Param(0), rule.Param(1))
	}
	// Unknown rules pass so client-only rules do not block submission.
	return "", true
}

func bounds(rule model.Rule, value any) (string, bool) {
	limit, err := strconv.ParseFloat(rule.Param(0), 64)
	if err != nil {
		return "", true
	}
	within := func(n float64) bool {
		if rule.Name == "max" {
			return n <= limit
		}
		return n >= limit
	}
	switch v := value.(type) {
	case string:
		return "", within(float64(utf8.RuneCountInString(v)))
	case float64, int, int64:
		n, _ := number(v)
		return "numeric", within(n)
	case map[string]any:
		if _, ok := v["size"]; ok {
			return "file", fileWithin(files(v), within)
		}
		return "array", within(float64(len(v)))
	}
	if items, ok := list(value); ok {
		if fs := files(value); len(fs) > 0 && fs[0].size >= 0 {
			return "file", fileWithin(fs, within)
		}
		return "array", within(float64(len(items)))
	}
	return "", true
}

func fileWithin(fs []file, within func(float64) bool) bool {
	for _, f := range fs {
		if f.size >= 0 && !within(float64(f.size)/1024) {
			return false
		}
	}
	return true
}

func number(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return n, err == nil
	}
	return 0, false
}

func list(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// file is a stored upload reference: either a bare storage key or an object
// with key, name and size (bytes).
type file struct {
	key      string
	original string
	size     int64
}

func (f file) name() string {
	if f.original != "" {
		return f.original
	}
	return f.key
}

func files(value any) []file {
	var out []file
	var add func(any)
	add = func(item any) {
		switch v := item.(type) {
		case string:
			out = append(out, file{key: v, size: -1})
		case map[string]any:
			f := file{size: -1}
			f.key, _ = v["key"].(string)
			if f.key == "" {
				f.key, _ = v["path"].(string)
			}
			f.original, _ = v["name"].(string)
			if n, ok := number(v["size"]); ok {
				f.size = int64(n)
			}
			out = append(out, f)
		case []any:
			for _, nested := range v {
				add(nested)
			}
		case []string:
			for _, nested := range v {
				add(nested)
			}
		default:
			out = append(out, file{})
		}
	}
	add(value)
	return out
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDate(s string) bool {
	_, ok := toTime(s)
	return ok
}

func toTime(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateRange accepts {"start": ..., "end": ...} or a two-item list. Both ends
// must be dates in order and inside the optional bounds.
func dateRange(value any, minDate, maxDate string) bool {
	var start, end any
	switch v := value.(type) {
	case map[string]any:
		start, end = v["start"], v["end"]
	default:
		items, ok := list(value)
		if !ok || len(items) != 2 {
			return false
		}
		start, end = items[0], items[1]
	}
	from, ok := toTime(model.Stringify(start))
	if !ok {
		return false
	}
	to, ok := toTime(model.Stringify(end))
	if !ok || to.Before(from) {
		return false
	}
	if lower, ok := toTime(minDate); ok && from.Before(lower) {
		return false
	}
	if upper, ok := toTime(maxDate); ok && to.After(upper) {
		return false
	}
	return true
}

var layoutTokens = strings.NewReplacer(
	"Y", "2006", "y", "06", "m", "01", "n", "1", "d", "02", "j", "2",
	"H", "15", "G", "15", "h", "03", "g", "3", "i", "04", "s", "05",
	"A", "PM", "a", "pm",
)

// goLayout converts date_format tokens (H:i, Y-m-d) into a time layout.
func goLayout(format string) string {
	return layoutTokens.Replace(format)
}

// compilePattern accepts delimited patterns such as "/^[a-z]+$/i".
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if len(pattern) >= 2 && pattern[0] == '/' {
		if end := strings.LastIndex(pattern, "/"); end > 0 {
			flags := pattern[end+1:]
			pattern = pattern[1:end]
			if strings.Contains(flags, "i") {
				pattern = "(?i)" + pattern
			}
		}
	}
	return regexp.Compile(pattern)
}
