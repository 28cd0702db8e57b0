package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Batch is one delivery of accumulated mutation notifications.
//
// Batches coalesce: when a subscriber has not yet received the previous
// batch, the next one is merged into it, so a slow consumer sees one batch
// carrying every reason instead of a backlog.
type Batch struct {
	// Seq is the sequence number of the newest mutation in the batch
	Seq int

	// Reasons lists what caused the mutations, oldest first
	Reasons []string
}

type subscription struct {
	ch     chan Batch
	closed bool
}

// Page is an HTML document plus its current location. It is the in-process
// stand-in for a browser tab: callers change it through Update, Mutate,
// SetLocation and Replace, and subscribers receive one Batch per change.
type Page struct {
	mu       sync.Mutex
	doc      *goquery.Document
	location string
	subs     map[int]*subscription
	nextID   int
	seq      int
}

// NewPage parses the HTML in r and returns a page located at location.
func NewPage(location string, r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Page{
		doc:      doc,
		location: location,
		subs:     make(map[int]*subscription),
	}, nil
}

// NewPageFromString is NewPage for an in-memory HTML string.
func NewPageFromString(location, rawHTML string) (*Page, error) {
	return NewPage(location, strings.NewReader(rawHTML))
}

// Location returns the current document location.
func (p *Page) Location() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.location
}

// SetLocation changes the location without replacing the document, as a
// single-page app does on client-side navigation.
func (p *Page) SetLocation(location string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.location == location {
		return
	}
	p.location = location
	p.notifyLocked("navigate")
}

// Update runs fn with exclusive access to the document. When fn reports a
// change, subscribers receive a batch tagged with reason.
func (p *Page) Update(reason string, fn func(doc *goquery.Document, location string) bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if fn(p.doc, p.location) {
		p.notifyLocked(reason)
	}
}

// Mutate runs fn against the document and always notifies subscribers.
func (p *Page) Mutate(reason string, fn func(doc *goquery.Document)) {
	p.Update(reason, func(doc *goquery.Document, _ string) bool {
		fn(doc)
		return true
	})
}

// Replace swaps in a freshly parsed document. Existing subscriptions are
// closed: whatever watched the old document must not outlive it.
func (p *Page) Replace(location string, r io.Reader) error {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.doc = doc
	p.location = location
	p.closeAllLocked()
	return nil
}

// Close ends every subscription.
func (p *Page) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeAllLocked()
}

// Subscribe registers a mutation consumer. The returned cancel function
// releases the subscription and is safe to call more than once.
func (p *Page) Subscribe() (<-chan Batch, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	sub := &subscription{ch: make(chan Batch, 1)}
	p.subs[id] = sub

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if s, ok := p.subs[id]; ok {
			delete(p.subs, id)
			if !s.closed {
				s.closed = true
				close(s.ch)
			}
		}
	}
	return sub.ch, cancel
}

// HTML renders the whole document.
func (p *Page) HTML() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var buf bytes.Buffer
	for _, n := range p.doc.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("failed to render document: %w", err)
		}
	}
	return buf.String(), nil
}

// notifyLocked delivers a batch to every subscriber without blocking.
// Must be called with p.mu held; only the holder of p.mu sends, so after
// draining a full buffer the send below always has room.
func (p *Page) notifyLocked(reason string) {
	p.seq++
	for _, sub := range p.subs {
		if sub.closed {
			continue
		}
		batch := Batch{Seq: p.seq, Reasons: []string{reason}}
		select {
		case sub.ch <- batch:
		default:
			select {
			case pending := <-sub.ch:
				batch.Reasons = append(pending.Reasons, batch.Reasons...)
			default:
			}
			sub.ch <- batch
		}
	}
}

func (p *Page) closeAllLocked() {
	for id, sub := range p.subs {
		if !sub.closed {
			sub.closed = true
			close(sub.ch)
		}
		delete(p.subs, id)
	}
}
