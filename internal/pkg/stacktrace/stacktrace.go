// Package stacktrace trims goroutine stack dumps to the frames that matter.
package stacktrace

import "strings"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame of
// a debug.Stack dump that belongs to this module's internal tree.
func InternalPaths(stack []byte) []string {
	var paths []string
	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)

		start := strings.Index(line, "/internal/")
		if start == -1 || !strings.Contains(line, ".go:") {
			continue
		}

		frame := line[start+1:]
		if sp := strings.IndexByte(frame, ' '); sp != -1 {
			frame = frame[:sp]
		}
		paths = append(paths, frame)
	}
	return paths
}
