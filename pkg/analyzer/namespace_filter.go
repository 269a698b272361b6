package analyzer

import "strings"

// NamespaceFilter selects which namespaces a scan covers. The zero value
// excludes nothing.
type NamespaceFilter struct {
	// SystemPrefixes marks platform-owned namespaces (e.g. "kube-") for exclusion
	SystemPrefixes []string
	// Excluded lists exact namespace names to skip
	Excluded []string
	// IncludeSystem disables the prefix exclusion
	IncludeSystem bool
	// Allowed, when non-empty, switches to allowlist mode: only these
	// namespaces are scanned. Exclusions still apply.
	Allowed []string
}

// Filter returns the subset of namespaces to scan, preserving input order.
// Applying Filter to its own output yields the same output.
func (f NamespaceFilter) Filter(namespaces []string) []string {
	out := make([]string, 0, len(namespaces))
	for _, ns := range namespaces {
		if f.Keep(ns) {
			out = append(out, ns)
		}
	}
	return out
}

// Keep reports whether a single namespace passes the filter
func (f NamespaceFilter) Keep(namespace string) bool {
	if len(f.Allowed) > 0 && !containsString(f.Allowed, namespace) {
		return false
	}
	if containsString(f.Excluded, namespace) {
		return false
	}
	if !f.IncludeSystem {
		for _, prefix := range f.SystemPrefixes {
			if strings.HasPrefix(namespace, prefix) {
				return false
			}
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
