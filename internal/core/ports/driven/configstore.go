package driven

// ConfigStore is a flat view of persisted settings. Keys are dotted
// ("embedding.provider", "query.top_k") and values keep the type the
// backing format decoded them as.
type ConfigStore interface {
	Get(key string) (any, bool)

	// GetString returns "" when the key is unset or not a string.
	GetString(key string) string

	// GetInt accepts any numeric value and returns 0 otherwise.
	GetInt(key string) int

	// GetStringSlice accepts a list or a comma-separated string.
	GetStringSlice(key string) []string

	// Set stores value and persists it before returning.
	Set(key string, value any) error

	// Keys lists the keys currently set, sorted.
	Keys() []string

	// Path names where settings are kept, for display.
	Path() string
}
