package cache

// Seen records which keys have been observed
type Seen interface {
	// Mark records key and reports whether it was new
	Mark(key string) bool
	Len() int
	Clear()
}
