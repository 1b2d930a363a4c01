package workspace

import (
	"strconv"
	"strings"
)

// parseWindowOwners reads the window walk output: one "alpha<TAB>owner" line
// per window containing the point, front to back. Fully transparent windows
// never receive the click and are dropped.
func parseWindowOwners(raw string) []ProcessID {
	if raw == "" {
		return nil
	}
	lines := strings.Split(raw, "\n")
	owners := make([]ProcessID, 0, len(lines))
	for _, line := range lines {
		alphaText, owner, ok := strings.Cut(line, "\t")
		if !ok {
			owners = append(owners, ProcessID(line))
			continue
		}
		alpha, err := strconv.ParseFloat(alphaText, 64)
		if err == nil && alpha <= 0 {
			continue
		}
		owners = append(owners, ProcessID(owner))
	}
	return owners
}
