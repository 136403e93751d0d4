package models

// CacheEntry is the envelope persisted by the cache store.
type CacheEntry struct {
	Data Documents `json:"data"`
	// Timestamp is the write time in epoch milliseconds
	Timestamp int64 `json:"timestamp"`
}

// CacheInfo describes the stored entry without touching it.
type CacheInfo struct {
	Exists         bool     `json:"exists" yaml:"exists"`
	AgeHours       *float64 `json:"ageHours,omitempty" yaml:"ageHours,omitempty"`
	ExpiresInHours *float64 `json:"expiresInHours,omitempty" yaml:"expiresInHours,omitempty"`
}
