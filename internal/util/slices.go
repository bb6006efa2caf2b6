package util

// LastPtr returns a pointer to the last element of s, or nil if s is empty.
func LastPtr[S ~[]E, E any](s S) *E {
	if len(s) == 0 {
		return nil
	}
	return &s[len(s)-1]
}
