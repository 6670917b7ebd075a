package lightning

import (
	"strings"

	"sfextract-backend/lib/dom"
)

// ViewKind is the page layout currently rendered.
type ViewKind string

const (
	ViewRecord ViewKind = "record"
	ViewList   ViewKind = "list"
	ViewKanban ViewKind = "kanban"
)

// PageContext classifies the page an extraction would run against. It is
// recomputed from the live URL and DOM on every request.
type PageContext struct {
	Object ObjectKind
	View   ViewKind
}

const (
	recordModeSegment  = "record-mode"
	listingModeSegment = "listing-mode"
)

// ResolveContext inspects the location path and the DOM and returns the
// (object, view) pair the page renders, or nil when the page is not a
// supported view. It is cheap and synchronous: the same call labels the
// trigger UI before any extraction starts.
//
// Path grammar: .../record-mode/<Kind>/<id>/view for a record detail page,
// .../listing-mode/<Kind>/... ending in /list or /home for a listing. A
// listing renders either a table or a kanban board; only the DOM can tell
// the two apart, so the kanban column marker is probed to disambiguate.
func ResolveContext(path string, doc dom.Document) *PageContext {
	segments := strings.Split(strings.Trim(path, "/"), "/")

	for i := 0; i+1 < len(segments); i++ {
		switch segments[i] {
		case recordModeSegment:
			// a record edit page shares the path prefix but is not a
			// supported view
			if strings.HasSuffix(path, "/view") {
				return &PageContext{Object: ObjectKind(segments[i+1]), View: ViewRecord}
			}
			return nil
		case listingModeSegment:
			if !strings.HasSuffix(path, "/list") && !strings.HasSuffix(path, "/home") {
				return nil
			}
			object := ObjectKind(segments[i+1])
			if len(doc.Query(kanbanColumnSelector)) > 0 {
				return &PageContext{Object: object, View: ViewKanban}
			}
			return &PageContext{Object: object, View: ViewList}
		}
	}
	return nil
}

// recordIdFromPath recovers the record identity from a record view path:
// the segment two past "record-mode" (the one after the object kind).
func recordIdFromPath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, segment := range segments {
		if segment == recordModeSegment && i+2 < len(segments) {
			return segments[i+2]
		}
	}
	return ""
}
