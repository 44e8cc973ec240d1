// Package view turns the record sequence into the rows a user sees: filtered
// by a search pattern, with the matching text marked.
package view

import (
	"regexp"
	"strings"
	"time"

	"finance/internal/cache"
	"finance/internal/core"
)

// Segment is a run of text that either matched the filter pattern or not.
type Segment struct {
	Text  string
	Match bool
}

// Row is one record prepared for display.
type Row struct {
	core.Record
	DescriptionSegments []Segment
	CategorySegments    []Segment
	AmountText          string
}

// Projection is the visible result of applying a pattern to a sequence.
// PatternValid is false when the pattern did not compile; the projection then
// shows every row unmarked.
type Projection struct {
	Rows         []Row
	Pattern      string
	PatternValid bool
}

// Filtered reports whether a usable pattern narrowed the rows.
func (p Projection) Filtered() bool {
	return p.Pattern != "" && p.PatternValid
}

// Projector compiles filter patterns and memoises them.
type Projector struct {
	patterns *cache.LRUCache[*regexp.Regexp]
}

func NewProjector(cacheSize int, ttl time.Duration) *Projector {
	return &Projector{patterns: cache.NewLRUCache[*regexp.Regexp](cacheSize, ttl)}
}

// CleanExpired implements cache.Cleaner
func (p *Projector) CleanExpired() int {
	return p.patterns.CleanExpired()
}

// Compile returns the case-insensitive regular expression for pattern.
func (p *Projector) Compile(pattern string) (*regexp.Regexp, error) {
	return p.patterns.GetOrLoad(pattern, func(s string) (*regexp.Regexp, error) {
		return regexp.Compile("(?i)" + s)
	})
}

// Project filters records to those whose description or category matches
// pattern and marks the matches. An empty or uncompilable pattern keeps every
// record. The input order is preserved.
func (p *Projector) Project(records []core.Record, pattern string) Projection {
	proj := Projection{Pattern: pattern, PatternValid: true}

	var re *regexp.Regexp
	if pattern != "" {
		compiled, err := p.Compile(pattern)
		if err != nil {
			proj.PatternValid = false
		} else {
			re = compiled
		}
	}

	proj.Rows = make([]Row, 0, len(records))
	for _, r := range records {
		if re != nil && !re.MatchString(r.Description) && !re.MatchString(r.Category) {
			continue
		}
		proj.Rows = append(proj.Rows, Row{
			Record:              r,
			DescriptionSegments: Highlight(r.Description, re),
			CategorySegments:    Highlight(r.Category, re),
			AmountText:          r.Amount.Display(),
		})
	}
	return proj
}

// Highlight splits text into matched and unmatched segments. A nil pattern
// yields the whole text as one unmatched segment. Empty matches are ignored.
func Highlight(text string, re *regexp.Regexp) []Segment {
	if text == "" {
		return nil
	}
	if re == nil {
		return []Segment{{Text: text}}
	}

	var segs []Segment
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		if loc[0] > last {
			segs = append(segs, Segment{Text: text[last:loc[0]]})
		}
		segs = append(segs, Segment{Text: text[loc[0]:loc[1]], Match: true})
		last = loc[1]
	}
	if last < len(text) {
		segs = append(segs, Segment{Text: text[last:]})
	}
	return segs
}

// Mark joins segments, wrapping matched ones in open and close.
func Mark(segs []Segment, open, close string) string {
	var b strings.Builder
	for _, s := range segs {
		if s.Match {
			b.WriteString(open)
			b.WriteString(s.Text)
			b.WriteString(close)
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}
