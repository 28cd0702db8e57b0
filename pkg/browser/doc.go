// Package browser runs the watcher against real pages through Playwright.
//
// The watcher itself works on parsed HTML. To use it on a live page the
// package mirrors the page instead of re-implementing the pipeline in the
// browser:
//
//  1. Attach installs a MutationObserver in every document the page loads
//     and exposes a binding the observer calls once per batch.
//  2. For every batch (and every main-frame navigation) the Mirror takes a
//     snapshot of the serialized DOM and runs one watcher pass over it.
//  3. The controls injected into the snapshot are replayed into the live
//     page by element path, together with the controlled-element marker.
//
// The marker travels back into the next snapshot, so a live element is
// never controlled twice even though each pass starts from a fresh parse.
//
// # Sessions
//
// SessionManager owns the Playwright driver and launches Chromium sessions:
//
//	manager := browser.NewSessionManager(logger)
//	if err := manager.Initialize(); err != nil {
//	    return err
//	}
//	defer manager.Shutdown()
//
//	session, err := manager.StartSession("probe", browser.SessionOptions{Headless: true})
//	mirror := browser.NewMirror(session, w)
//	if err := mirror.Attach(); err != nil {
//	    return err
//	}
//	err = session.Navigate("https://gitlab.com/acme/widgets/issues/1", browser.NavigateOptions{})
//	err = mirror.Run(ctx)
package browser
