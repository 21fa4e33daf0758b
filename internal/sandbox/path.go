package sandbox

import (
	"path"
	"strings"
)

// dropLeadingComponents are host-OS-root directory names with no remote
// meaning; an absolute path with none of the other special cases strips
// these off its front before being reattached under rootDir.
var dropLeadingComponents = map[string]bool{
	"Users":        true,
	"usr":          true,
	"var":          true,
	"Library":      true,
	"System":       true,
	"Applications": true,
}

const daytonaHomeSegment = "/home/daytona"

// computeMapPath is the pure, deterministic path-mapping algorithm;
// Handle.MapPath wraps it with the pathCache.
func computeMapPath(host, rootDir, hostHome string) string {
	if host == "" {
		return rootDir
	}

	if !isAbsPath(host) && !strings.ContainsAny(host, `/\`) {
		return path.Join(rootDir, host)
	}

	if isAbsPath(host) {
		if hostHome != "" && (host == hostHome || strings.HasPrefix(host, hostHome+"/")) {
			rel := strings.TrimPrefix(host, hostHome)
			rel = strings.TrimPrefix(rel, "/")
			return path.Join(rootDir, rel)
		}

		if strings.Contains(host, daytonaHomeSegment) {
			return host
		}

		return path.Join(rootDir, stripLeadingSystemComponents(host))
	}

	// Relative path carrying a separator.
	return path.Join(rootDir, host)
}

func isAbsPath(p string) bool {
	return strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`)
}

// stripLeadingSystemComponents drops components from the set in
// dropLeadingComponents off the front of an absolute path and returns the
// remaining tail (no leading slash). Dropping stops at the first
// component that is not in the set.
func stripLeadingSystemComponents(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	i := 0
	for i < len(parts) && dropLeadingComponents[parts[i]] {
		i++
	}
	return strings.Join(parts[i:], "/")
}

// MapPath translates a host-shaped path into a stable workspace path:
// every cached result begins with rootDir or is an unmodified
// /home/daytona pass-through.
func (h *Handle) MapPath(host string) string {
	h.pathMu.Lock()
	defer h.pathMu.Unlock()

	if cached, ok := h.pathCache[host]; ok {
		return cached
	}

	mapped := computeMapPath(host, h.rootDir, h.hostHome)
	h.pathCache[host] = mapped
	return mapped
}
