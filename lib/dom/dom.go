// Package dom defines the capability surface the extraction engine uses to
// read a rendered page. Implementations wrap a real or synthetic document
// tree; extraction code never touches a concrete HTML library directly.
package dom

import "context"

// Node is a single element in the document tree. Implementations must be
// comparable so callers can tell whether two queries returned the same
// underlying element.
type Node interface {
	// Query returns the descendants of this node matching a CSS selector,
	// in document order.
	Query(selector string) []Node
	// Text returns the concatenated text content of the subtree.
	Text() string
	// Attr returns the value of an attribute and whether it is present.
	Attr(name string) (string, bool)
	// Visible reports whether the element takes part in the rendered page.
	// Elements under an aria-hidden ancestor or hidden by inline style do
	// not; duplicated containers in background tabs are the usual case.
	Visible() bool
}

// Document is the root of a live page.
type Document interface {
	// Query returns all elements in the document matching a CSS selector.
	Query(selector string) []Node
	// Watch returns a channel that receives a signal whenever the tree
	// mutates, and a function releasing the subscription. The channel is
	// closed on release.
	Watch() (<-chan struct{}, func())
}

// DetailTabActivator is an optional Document capability: switching the page
// to its canonical detail tab before field extraction. Implementations are
// expected to be idempotent and to return once the page has had a bounded
// grace period to respond.
type DetailTabActivator interface {
	ActivateDetailTab(ctx context.Context) error
}
