package domain

// Boundary is a candidate container found in a rendered page.
type Boundary struct {
	// Tag is the opening tag text, e.g. `<div class="blog-item">`.
	Tag string
	// Start and End are byte offsets; End is exclusive.
	Start int
	End   int
	// Priority is the index of the matched class in the candidate list.
	Priority int
	// Depth is the element nesting depth; zero for heuristic boundaries.
	Depth int
}

// Contains reports whether offset lies strictly inside the boundary.
func (b Boundary) Contains(offset int) bool {
	return b.Start < offset && offset < b.End
}

// PatchResult summarises one patch pass.
type PatchResult struct {
	Containers    int  `json:"containers"`
	Anchors       int  `json:"anchors"`
	Marked        int  `json:"marked"`
	StyleInjected bool `json:"style_injected"`
}
