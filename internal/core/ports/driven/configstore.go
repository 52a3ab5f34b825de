package driven

// ConfigStore is a flat key/value view of config.toml. Nested tables appear
// as dotted keys such as "router.classifier" or "scheduler.index_sync.interval".
// Typed getters return the zero value for missing or mistyped keys.
type ConfigStore interface {
	// Get reports whether key is set.
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set writes through to storage.
	Set(key string, value any) error

	Save() error
	// Load discards in-memory values and rereads storage.
	Load() error
	// Path names the backing file, or a placeholder for in-memory stores.
	Path() string
}
