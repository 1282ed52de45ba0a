package resolver

import (
	"sort"
	"strings"

	"github.com/goliatone/go-formkit/pkg/model"
)

type matchedOption struct {
	option   model.Option
	isPrefix bool
	index    int
}

// filter keeps options whose label contains term, case-insensitively. Prefix
// matches come first; otherwise the source order is preserved. An empty term
// keeps everything.
func filter(options []model.Option, term string) []model.Option {
	q := strings.ToLower(strings.TrimSpace(term))
	if q == "" {
		return options
	}
	matches := make([]matchedOption, 0, len(options))
	for i, opt := range options {
		label := strings.ToLower(opt.Label)
		if !strings.Contains(label, q) {
			continue
		}
		matches = append(matches, matchedOption{option: opt, isPrefix: strings.HasPrefix(label, q), index: i})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].isPrefix != matches[j].isPrefix {
			return matches[i].isPrefix
		}
		return matches[i].index < matches[j].index
	})
	out := make([]model.Option, 0, len(matches))
	for _, match := range matches {
		out = append(out, match.option)
	}
	return out
}
