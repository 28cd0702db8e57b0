package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Navigate navigates the session's page to url.
func (s *Session) Navigate(url string, opts NavigateOptions) error {
	gotoOpts := playwright.PageGotoOptions{}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		gotoOpts.WaitUntil = &waitUntil
	}
	if opts.Timeout > 0 {
		gotoOpts.Timeout = &opts.Timeout
	}

	if _, err := s.Page.Goto(url, gotoOpts); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	s.CurrentURL = s.Page.URL()
	return nil
}

// snapshotScript serializes a clone of the document with the live values
// of form controls written back into the markup, since script-filled
// textareas and inputs keep their value outside the serialized DOM. The
// live document is not touched.
const snapshotScript = `() => {
  const root = document.documentElement.cloneNode(true);
  const live = document.documentElement.querySelectorAll('textarea, input');
  const copies = root.querySelectorAll('textarea, input');
  copies.forEach((el, i) => {
    const value = live[i] ? live[i].value : el.value;
    if (el.tagName === 'TEXTAREA') {
      el.textContent = value;
    } else if (el.type === 'checkbox' || el.type === 'radio') {
      if (live[i] && live[i].checked) el.setAttribute('checked', '');
      else el.removeAttribute('checked');
    } else if (el.type !== 'password' && el.type !== 'file') {
      el.setAttribute('value', value);
    }
  });
  const doctype = document.doctype ? '<!DOCTYPE ' + document.doctype.name + '>' : '';
  return doctype + root.outerHTML;
}`

// Snapshot returns the page's current location and serialized DOM,
// including the current values of form controls.
func (s *Session) Snapshot() (location, content string, err error) {
	result, err := s.Page.Evaluate(snapshotScript)
	if err != nil {
		return "", "", fmt.Errorf("failed to read page content: %w", err)
	}
	content, ok := result.(string)
	if !ok {
		return "", "", fmt.Errorf("unexpected snapshot result %T", result)
	}
	return s.Page.URL(), content, nil
}

// Apply replays a pass's DOM changes into the live page and returns how
// many operations landed.
func (s *Session) Apply(r *Replay) (int, error) {
	if r.Empty() {
		return 0, nil
	}
	result, err := s.Page.Evaluate(replayScript, r.arg())
	if err != nil {
		return 0, fmt.Errorf("failed to apply controls: %w", err)
	}
	switch n := result.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("unexpected replay result %T", result)
	}
}
