//go:build !darwin

package workspace

import (
	"os"
	"path/filepath"

	"fineterm/internal/input"
)

// stubWorkspace reports an empty desktop; the taps never start on these
// platforms, so nothing calls it from the hot path.
type stubWorkspace struct{}

// New returns a workspace that only knows its own identity.
func New() Workspace {
	return stubWorkspace{}
}

func (stubWorkspace) Self() ProcessID {
	exe, err := os.Executable()
	if err != nil {
		return "fineterm"
	}
	return ProcessID(filepath.Base(exe))
}

func (stubWorkspace) Frontmost() ProcessID { return "" }

func (stubWorkspace) Running() ([]ProcessID, error) { return nil, ErrUnsupported }

func (stubWorkspace) Activate(ProcessID) error { return ErrUnsupported }

func (stubWorkspace) OwnersAt(input.Point) ([]ProcessID, error) { return nil, ErrUnsupported }

func (stubWorkspace) Trusted(bool) bool { return false }
