package dom

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `<html><body>
<div class="header">
  <div class="actions">
    <a class="btn hidden">Hidden</a>
    <a class="btn" id="shown">Shown</a>
  </div>
  <h2 class="title">Fix crash <span class="badge">new</span></h2>
  <div class="holder"><span>icon</span>   Widgets  </div>
  <textarea class="name">Draft title</textarea>
  <input class="field" value="42">
  <div style="display: none"><a class="btn" id="buried">Buried</a></div>
</div>
</body></html>`

func newFixturePage(t *testing.T) *Page {
	t.Helper()
	page, err := NewPageFromString("https://example.com/a", fixture)
	require.NoError(t, err)
	return page
}

func TestQueries(t *testing.T) {
	page := newFixturePage(t)
	root := page.doc.Selection

	t.Run("first", func(t *testing.T) {
		el, ok := First(root, ".actions .btn")
		require.True(t, ok)
		assert.Equal(t, "Hidden", el.Text())

		_, ok = First(root, ".missing")
		assert.False(t, ok)
	})

	t.Run("first visible skips hidden elements", func(t *testing.T) {
		el, ok := FirstVisible(root, ".btn")
		require.True(t, ok)
		assert.Equal(t, "shown", el.AttrOr("id", ""))
	})

	t.Run("visibility is inherited", func(t *testing.T) {
		el, ok := First(root, "#buried")
		require.True(t, ok)
		assert.False(t, Visible(el))
	})

	t.Run("leading text ignores trailing badges", func(t *testing.T) {
		el, ok := First(root, ".title")
		require.True(t, ok)
		assert.Equal(t, "Fix crash ", LeadingText(el))
	})

	t.Run("find text node", func(t *testing.T) {
		n, ok := FindTextNode(root, ".holder")
		require.True(t, ok)
		assert.Equal(t, "Widgets", strings.TrimSpace(n.Data))

		_, ok = FindTextNode(root, ".actions")
		assert.False(t, ok)
	})

	t.Run("form values", func(t *testing.T) {
		ta, _ := First(root, ".name")
		assert.Equal(t, "Draft title", Value(ta))
		in, _ := First(root, ".field")
		assert.Equal(t, "42", Value(in))
		assert.Equal(t, "", Value(nil))
	})

	t.Run("all keeps document order", func(t *testing.T) {
		ids := All(root, ".btn").Map(func(_ int, s *goquery.Selection) string {
			return s.Text()
		})
		assert.Equal(t, []string{"Hidden", "Shown", "Buried"}, ids)
	})
}

func TestElementPath(t *testing.T) {
	page := newFixturePage(t)

	el, ok := First(page.doc.Selection, "#shown")
	require.True(t, ok)

	path, err := ElementPath(el.Nodes[0])
	require.NoError(t, err)
	// html > body(1) > .header(0) > .actions(0) > #shown(1)
	assert.Equal(t, []int{1, 0, 0, 1}, path)

	detached := Wrap(el.Nodes[0]).Clone()
	_, err = ElementPath(detached.Nodes[0])
	assert.Error(t, err)
}

func TestSubscribe_CoalescesPendingBatches(t *testing.T) {
	page := newFixturePage(t)
	batches, cancel := page.Subscribe()
	defer cancel()

	page.Mutate("first", func(doc *goquery.Document) {})
	page.Mutate("second", func(doc *goquery.Document) {})
	page.SetLocation("https://example.com/b")

	batch := <-batches
	assert.Equal(t, 3, batch.Seq)
	assert.Equal(t, []string{"first", "second", "navigate"}, batch.Reasons)

	select {
	case extra := <-batches:
		t.Fatalf("unexpected extra batch %+v", extra)
	default:
	}
}

func TestUpdate_NotifiesOnlyOnChange(t *testing.T) {
	page := newFixturePage(t)
	batches, cancel := page.Subscribe()
	defer cancel()

	page.Update("noop", func(*goquery.Document, string) bool { return false })
	page.SetLocation("https://example.com/a")

	select {
	case b := <-batches:
		t.Fatalf("unexpected batch %+v", b)
	default:
	}
}

func TestReplace_ClosesSubscriptions(t *testing.T) {
	page := newFixturePage(t)
	batches, cancel := page.Subscribe()

	require.NoError(t, page.Replace("https://example.com/next", strings.NewReader("<p>next</p>")))

	_, open := <-batches
	assert.False(t, open)
	assert.Equal(t, "https://example.com/next", page.Location())
	assert.NotPanics(t, cancel)

	out, err := page.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, "<p>next</p>")
}
