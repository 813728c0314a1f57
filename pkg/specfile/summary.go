package specfile

import (
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// Summary is a display-only digest of an uploaded OpenAPI document.
type Summary struct {
	Title       string     `json:"title,omitempty"`
	Version     string     `json:"version,omitempty"`
	Description string     `json:"description,omitempty"`
	Endpoints   []Endpoint `json:"endpoints"`
}

// Endpoint describes one operation in the document.
type Endpoint struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Summary string `json:"summary,omitempty"`
}

// Summarize parses the spec at path and extracts its info block and
// endpoint list. Best-effort: a document that fails to parse yields an
// empty summary, not an error. Whether the engine can serve such a file
// is the engine's own concern.
func Summarize(path string) Summary {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile(path)
	if err != nil || doc == nil {
		return Summary{Endpoints: []Endpoint{}}
	}

	s := Summary{Endpoints: []Endpoint{}}
	if doc.Info != nil {
		s.Title = doc.Info.Title
		s.Version = doc.Info.Version
		s.Description = doc.Info.Description
	}

	if doc.Paths != nil {
		paths := make([]string, 0, doc.Paths.Len())
		for p := range doc.Paths.Map() {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		for _, p := range paths {
			item := doc.Paths.Value(p)
			if item == nil {
				continue
			}
			for method, op := range item.Operations() {
				ep := Endpoint{Method: method, Path: p}
				if op != nil {
					ep.Summary = op.Summary
				}
				s.Endpoints = append(s.Endpoints, ep)
			}
		}

		// Operations() iterates a map; fix the order for stable display.
		sort.Slice(s.Endpoints, func(i, j int) bool {
			if s.Endpoints[i].Path != s.Endpoints[j].Path {
				return s.Endpoints[i].Path < s.Endpoints[j].Path
			}
			return s.Endpoints[i].Method < s.Endpoints[j].Method
		})
	}

	return s
}
