// Package wikitext parses the template structure of MediaWiki markup.
// It understands just enough of the syntax to find {{...}} blocks and split
// them into named parameters; it does not render anything.
package wikitext

import (
	"sort"
	"strconv"
	"strings"
)

// Param is a template parameter. Positional parameters are named "1", "2", ...
type Param struct {
	Name  string
	Value string // raw markup, untrimmed
}

// Template is a well-formed {{...}} block.
type Template struct {
	Name   string
	Params []Param
	Start  int // byte offset of the opening braces
	End    int // byte offset just past the closing braces
}

// Lookup returns the raw value of the parameter called name. Names are
// compared exactly after trimming; when a name repeats the last one wins.
func (t *Template) Lookup(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for i := len(t.Params) - 1; i >= 0; i-- {
		if t.Params[i].Name == name {
			return t.Params[i].Value, true
		}
	}
	return "", false
}

type frameKind int

const (
	frameTemplate frameKind = iota
	frameArgument           // {{{...}}}
	frameLink               // [[...]]
)

type frame struct {
	kind  frameKind
	start int
	pipes []int       // offsets of top-level '|'
	eqs   map[int]int // segment index -> offset of its first top-level '='
}

// Parse returns every well-formed template in doc, nested ones included,
// ordered by start offset. Blocks that are never closed are dropped and
// stray closers are read as text, so Parse never fails.
func Parse(doc string) []Template {
	var (
		stack     []*frame
		templates []Template
		search    = newSearcher(doc)
	)

	top := func() *frame {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}

	// closeNearest pops up to and including the nearest frame of kind,
	// discarding unclosed frames above it.
	closeNearest := func(kind frameKind) *frame {
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].kind == kind {
				f := stack[i]
				stack = stack[:i]
				return f
			}
		}
		return nil
	}

	push := func(kind frameKind, at int) {
		stack = append(stack, &frame{kind: kind, start: at, eqs: make(map[int]int)})
	}

	for i := 0; i < len(doc); {
		rest := doc[i:]
		switch {
		case strings.HasPrefix(rest, "<!--"):
			end := strings.Index(rest[4:], "-->")
			if end < 0 {
				i = len(doc) // an unterminated comment runs to the end
				continue
			}
			i += 4 + end + 3
		case rest[0] == '<':
			if n := search.opaqueTagLen(i); n > 0 {
				i += n
				continue
			}
			i++
		case strings.HasPrefix(rest, "{{{"):
			push(frameArgument, i)
			i += 3
		case strings.HasPrefix(rest, "{{"):
			push(frameTemplate, i)
			i += 2
		case strings.HasPrefix(rest, "[["):
			push(frameLink, i)
			i += 2
		case strings.HasPrefix(rest, "}}}") && top() != nil && top().kind == frameArgument:
			stack = stack[:len(stack)-1]
			i += 3
		case strings.HasPrefix(rest, "}}"):
			if f := closeNearest(frameTemplate); f != nil {
				templates = append(templates, f.build(doc, i))
			}
			i += 2
		case strings.HasPrefix(rest, "]]"):
			closeNearest(frameLink)
			i += 2
		case rest[0] == '|':
			if f := top(); f != nil && f.kind == frameTemplate {
				f.pipes = append(f.pipes, i)
			}
			i++
		case rest[0] == '=':
			if f := top(); f != nil && f.kind == frameTemplate && len(f.pipes) > 0 {
				if _, ok := f.eqs[len(f.pipes)]; !ok {
					f.eqs[len(f.pipes)] = i
				}
			}
			i++
		default:
			i++
		}
	}

	sort.SliceStable(templates, func(a, b int) bool {
		return templates[a].Start < templates[b].Start
	})
	return templates
}

// build turns a template frame closed at offset end into a Template.
func (f *frame) build(doc string, end int) Template {
	bounds := append(f.pipes, end)
	t := Template{
		Name:  strings.TrimSpace(doc[f.start+2 : bounds[0]]),
		Start: f.start,
		End:   end + 2,
	}

	positional := 0
	for k := 1; k < len(bounds); k++ {
		segStart, segEnd := bounds[k-1]+1, bounds[k]
		if eq, ok := f.eqs[k]; ok {
			t.Params = append(t.Params, Param{
				Name:  strings.TrimSpace(doc[segStart:eq]),
				Value: doc[eq+1 : segEnd],
			})
			continue
		}
		positional++
		t.Params = append(t.Params, Param{
			Name:  strconv.Itoa(positional),
			Value: doc[segStart:segEnd],
		})
	}
	return t
}

// Tags whose content is not wikitext structure.
var opaqueTags = []string{"nowiki", "pre", "ref", "math"}

// searcher finds needles in an ASCII-lowered copy of the document. Offsets
// are remembered per needle, and Parse only moves forward, so each needle
// is scanned across the document at most once.
type searcher struct {
	lower string
	next  map[string]int // needle -> first match at or after the last query, -1 if none
}

func newSearcher(doc string) *searcher {
	return &searcher{lower: asciiLower(doc), next: make(map[string]int)}
}

// index returns the offset of the first needle at or after from, or -1.
func (s *searcher) index(needle string, from int) int {
	if at, ok := s.next[needle]; ok && (at < 0 || at >= from) {
		return at
	}
	at := strings.Index(s.lower[from:], needle)
	if at >= 0 {
		at += from
	}
	s.next[needle] = at
	return at
}

// opaqueTagLen returns the length of the opaque tag section starting at
// doc[i], or 0 when doc[i] does not start one. An unclosed tag covers only
// its opening tag.
func (s *searcher) opaqueTagLen(i int) int {
	rest := s.lower[i+1:]
	for _, tag := range opaqueTags {
		if len(rest) <= len(tag) || rest[:len(tag)] != tag {
			continue
		}
		after := i + 1 + len(tag)
		if c := s.lower[after]; c != '>' && c != '/' && c != ' ' && c != '\t' && c != '\n' {
			continue
		}
		gt := s.index(">", after)
		if gt < 0 {
			return 0
		}
		openEnd := gt + 1
		if gt > after && s.lower[gt-1] == '/' {
			return openEnd - i
		}

		closing := s.index("</"+tag, openEnd)
		if closing < 0 {
			return openEnd - i
		}
		closeGt := s.index(">", closing)
		if closeGt < 0 {
			return len(s.lower) - i
		}
		return closeGt + 1 - i
	}
	return 0
}

// asciiLower lower-cases ASCII letters only, so byte offsets are preserved.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
