// Package patcher marks sponsored article containers in rendered HTML and
// injects the stylesheet that colours them.
package patcher

import (
	"sort"

	"github.com/cybersalt/cs-sponsored-articles/internal/domain"
)

// Boundary modes.
const (
	ModeExact     = "exact"
	ModeHeuristic = "heuristic"
)

// Options configure a Patcher.
type Options struct {
	MarkerClass     string
	FieldName       string
	BackgroundColor string
	// Mode selects how container spans are found. Anything other than
	// ModeHeuristic uses the tokenizer.
	Mode string
}

// Patcher is immutable and safe for concurrent use.
type Patcher struct {
	marker string
	mode   string
	style  string
}

// scan is the output of a boundary pass: every candidate container and the
// containers enclosing a matching permalink, one entry per anchor.
type scan struct {
	containers []domain.Boundary
	targets    []domain.Boundary
	anchors    int
}

// New builds a Patcher.
func New(opts Options) *Patcher {
	return &Patcher{
		marker: opts.MarkerClass,
		mode:   opts.Mode,
		style:  stylesheet(opts.MarkerClass, opts.FieldName, opts.BackgroundColor),
	}
}

// Stylesheet returns the style element injected into every page.
func (p *Patcher) Stylesheet() string {
	return p.style
}

// Mode returns the boundary mode in use.
func (p *Patcher) Mode() string {
	if p.mode == ModeHeuristic {
		return ModeHeuristic
	}
	return ModeExact
}

// Patch adds the marker class to every candidate container enclosing a
// permalink to one of aliases, then injects the stylesheet before </head>.
// Containers are only counted when the body mentions an alias.
func (p *Patcher) Patch(body string, candidates, aliases []string) (string, domain.PatchResult) {
	var result domain.PatchResult

	set := newAliasSet(aliases)
	if len(set) > 0 && len(candidates) > 0 && set.mentionedIn(body) {
		var s scan
		if p.Mode() == ModeHeuristic {
			s = heuristicScan(body, candidates, set)
		} else {
			s = exactScan(body, candidates, set)
		}
		result.Containers = len(s.containers)
		result.Anchors = s.anchors
		body, result.Marked = p.mark(body, s.targets)
	}

	body, result.StyleInjected = injectStyle(body, p.style)
	return body, result
}

// mark rewrites each distinct target's opening tag, last first so earlier
// offsets stay valid.
func (p *Patcher) mark(body string, targets []domain.Boundary) (string, int) {
	byStart := make(map[int]domain.Boundary, len(targets))
	for _, t := range targets {
		if hasClass(t.Tag, p.marker) {
			continue
		}
		byStart[t.Start] = t
	}
	if len(byStart) == 0 {
		return body, 0
	}

	starts := make([]int, 0, len(byStart))
	for start := range byStart {
		starts = append(starts, start)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(starts)))

	for _, start := range starts {
		t := byStart[start]
		end := start + len(t.Tag)
		body = body[:start] + addClass(t.Tag, p.marker) + body[end:]
	}
	return body, len(starts)
}
