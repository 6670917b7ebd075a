// Package gqdom implements dom.Document on top of a goquery-parsed HTML
// tree. The tree can be swapped out wholesale with SetHTML, which wakes any
// watchers; this plays the role a MutationObserver does against a live page
// and lets readiness waiters be exercised against snapshots.
package gqdom

import (
	"io"
	"strings"
	"sync"

	"sfextract-backend/lib/dom"
	"sfextract-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

type Document struct {
	mu       sync.RWMutex
	root     *html.Node
	watchers map[int]chan struct{}
	nextId   int
}

func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{
		root:     root,
		watchers: map[int]chan struct{}{},
	}, nil
}

func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// SetHTML replaces the whole tree and signals every watcher.
func (d *Document) SetHTML(s string) error {
	root, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.root = root
	for _, ch := range d.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	d.mu.Unlock()
	return nil
}

func (d *Document) Query(selector string) []dom.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.queryFrom(d.root, selector)
}

func (d *Document) Watch() (<-chan struct{}, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextId
	d.nextId++
	ch := make(chan struct{}, 1)
	d.watchers[id] = ch

	return ch, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if _, ok := d.watchers[id]; ok {
			delete(d.watchers, id)
			close(ch)
		}
	}
}

func (d *Document) queryFrom(root *html.Node, selector string) []dom.Node {
	found := goquery.NewDocumentFromNode(root).Find(selector).Nodes
	nodes := make([]dom.Node, len(found))
	for i, n := range found {
		nodes[i] = node{d: d, n: n}
	}
	return nodes
}

// node is a comparable value: two nodes wrapping the same element compare
// equal, which extraction code relies on to tell a card's primary anchor
// apart from its secondary ones.
type node struct {
	d *Document
	n *html.Node
}

func (nd node) Query(selector string) []dom.Node {
	nd.d.mu.RLock()
	defer nd.d.mu.RUnlock()
	return nd.d.queryFrom(nd.n, selector)
}

func (nd node) Text() string {
	nd.d.mu.RLock()
	defer nd.d.mu.RUnlock()
	return htmlutil.CleanText(htmlutil.GetText(nd.n))
}

func (nd node) Attr(name string) (string, bool) {
	nd.d.mu.RLock()
	defer nd.d.mu.RUnlock()
	for _, a := range nd.n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// Visible approximates browser visibility for a static tree: an element
// under an aria-hidden subtree, carrying the hidden attribute, or hidden by
// inline style is not part of the rendered page.
func (nd node) Visible() bool {
	nd.d.mu.RLock()
	defer nd.d.mu.RUnlock()

	for n := nd.n; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		for _, a := range n.Attr {
			switch a.Key {
			case "aria-hidden":
				if a.Val == "true" {
					return false
				}
			case "hidden":
				return false
			case "style":
				style := strings.ReplaceAll(a.Val, " ", "")
				if strings.Contains(style, "display:none") ||
					strings.Contains(style, "visibility:hidden") {
					return false
				}
			}
		}
	}
	return true
}
