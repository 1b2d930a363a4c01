// Package hittest decides which application owns the window under a point.
package hittest

import (
	"log/slog"

	"fineterm/internal/input"
	"fineterm/internal/workspace"
)

// DefaultTransparent lists window-server owners that can sit above real
// windows without occluding them.
var DefaultTransparent = []workspace.ProcessID{
	"com.apple.WindowServer",
	"Window Server",
}

// Tester answers ownership queries against a workspace.
type Tester struct {
	ws          workspace.Workspace
	transparent map[workspace.ProcessID]struct{}
	logger      *slog.Logger
}

// New returns a tester that skips DefaultTransparent plus extra owners.
func New(ws workspace.Workspace, extra ...string) *Tester {
	t := &Tester{
		ws:          ws,
		transparent: make(map[workspace.ProcessID]struct{}, len(DefaultTransparent)+len(extra)),
		logger:      slog.Default().With("component", "hittest"),
	}
	for _, id := range DefaultTransparent {
		t.transparent[id] = struct{}{}
	}
	for _, id := range extra {
		if id != "" {
			t.transparent[workspace.ProcessID(id)] = struct{}{}
		}
	}
	return t
}

// IsPointOwnedBy reports whether the topmost non-transparent window at p
// belongs to target. Failed or empty lookups answer false.
func (t *Tester) IsPointOwnedBy(p input.Point, target workspace.ProcessID) bool {
	owner, ok := t.OwnerAt(p)
	inside := ok && owner == target
	t.logger.Debug("hit test",
		"x", p.X, "y", p.Y,
		"owner", owner.String(),
		"target", target.String(),
		"inside", inside,
	)
	return inside
}

// OwnerAt returns the topmost non-transparent owner at p.
func (t *Tester) OwnerAt(p input.Point) (workspace.ProcessID, bool) {
	owners, err := t.ws.OwnersAt(p)
	if err != nil {
		t.logger.Debug("window lookup failed", "error", err)
		return "", false
	}
	for _, owner := range owners {
		if _, skip := t.transparent[owner]; skip {
			continue
		}
		if owner.IsZero() {
			continue
		}
		return owner, true
	}
	return "", false
}
