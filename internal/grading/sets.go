package grading

import "strings"

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func contains(key []string, s string, casefold bool) bool {
	if casefold {
		s = strings.ToLower(strings.TrimSpace(s))
	}
	for _, k := range key {
		if casefold {
			k = strings.ToLower(strings.TrimSpace(k))
		}
		if k == s {
			return true
		}
	}
	return false
}
