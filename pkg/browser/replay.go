package browser

import (
	"fmt"
	"slices"

	"github.com/entrhq/webtool/pkg/dom"
	"github.com/entrhq/webtool/pkg/watcher"
)

// insertOp places one control: the element at Index under the parent at
// ParentPath is the one that follows the control once it is inserted.
type insertOp struct {
	ParentPath []int
	ParentTag  string
	Index      int
	HTML       string
}

// markOp flags one controlled element.
type markOp struct {
	Path []int
	Tag  string
}

// Replay is the set of DOM changes a pass made to a snapshot, expressed
// so they can be repeated on the live document the snapshot came from.
//
// All paths are taken after the pass, so inserts must run in document
// order and before any mark.
type Replay struct {
	Marker  string
	Inserts []insertOp
	Marks   []markOp
}

// NewReplay records the injections of one pass. The snapshot they were
// made in must not change before NewReplay returns.
func NewReplay(marker string, injections []watcher.Injection) (*Replay, error) {
	r := &Replay{Marker: marker}

	for _, inj := range injections {
		controlPath, err := dom.ElementPath(inj.Control)
		if err != nil {
			return nil, fmt.Errorf("control for %q: %w", inj.Issue.IssueName, err)
		}
		if len(controlPath) == 0 {
			return nil, fmt.Errorf("control for %q replaced the document element", inj.Issue.IssueName)
		}
		markup, err := dom.OuterHTML(inj.Control)
		if err != nil {
			return nil, err
		}
		r.Inserts = append(r.Inserts, insertOp{
			ParentPath: controlPath[:len(controlPath)-1],
			ParentTag:  inj.Control.Parent.Data,
			Index:      controlPath[len(controlPath)-1],
			HTML:       markup,
		})

		elementPath, err := dom.ElementPath(inj.Element)
		if err != nil {
			return nil, fmt.Errorf("issue element for %q: %w", inj.Issue.IssueName, err)
		}
		r.Marks = append(r.Marks, markOp{Path: elementPath, Tag: inj.Element.Data})
	}

	slices.SortStableFunc(r.Inserts, func(a, b insertOp) int {
		return slices.Compare(append(slices.Clone(a.ParentPath), a.Index), append(slices.Clone(b.ParentPath), b.Index))
	})
	return r, nil
}

// Empty reports whether there is nothing to replay.
func (r *Replay) Empty() bool {
	return r == nil || (len(r.Inserts) == 0 && len(r.Marks) == 0)
}

// arg converts the replay into the plain values Playwright serializes.
func (r *Replay) arg() map[string]interface{} {
	inserts := make([]interface{}, 0, len(r.Inserts))
	for _, op := range r.Inserts {
		inserts = append(inserts, map[string]interface{}{
			"parentPath": intsToValues(op.ParentPath),
			"parentTag":  op.ParentTag,
			"index":      op.Index,
			"html":       op.HTML,
		})
	}
	marks := make([]interface{}, 0, len(r.Marks))
	for _, op := range r.Marks {
		marks = append(marks, map[string]interface{}{
			"path": intsToValues(op.Path),
			"tag":  op.Tag,
		})
	}
	return map[string]interface{}{
		"marker":  r.Marker,
		"inserts": inserts,
		"marks":   marks,
	}
}

func intsToValues(path []int) []interface{} {
	out := make([]interface{}, len(path))
	for i, v := range path {
		out[i] = v
	}
	return out
}

// replayScript applies a Replay. Operations whose target no longer has the
// expected tag are dropped; the next pass sees the live DOM again.
const replayScript = `(r) => {
  const resolve = (path) => {
    let el = document.documentElement;
    for (const i of path) {
      if (!el) return null;
      el = el.children[i];
    }
    return el || null;
  };
  const tagOf = (el) => el.tagName.toLowerCase();
  let applied = 0;
  for (const op of r.inserts) {
    const parent = resolve(op.parentPath);
    if (!parent || tagOf(parent) !== op.parentTag) continue;
    const tpl = document.createElement('template');
    tpl.innerHTML = op.html;
    const control = tpl.content.firstElementChild;
    if (!control) continue;
    parent.insertBefore(control, parent.children[op.index] || null);
    applied++;
  }
  for (const op of r.marks) {
    const el = resolve(op.path);
    if (!el || tagOf(el) !== op.tag || el.hasAttribute(r.marker)) continue;
    el.setAttribute(r.marker, 'true');
    applied++;
  }
  return applied;
}`
