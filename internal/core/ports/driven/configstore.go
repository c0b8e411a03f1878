package driven

// ConfigStore holds settings under dotted keys such as "chunking.size".
// The settings service owns defaults and validation; a store only
// converts and persists values.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	// GetString returns "" for missing or non-string values.
	GetString(key string) string

	// GetInt returns 0 for missing or non-numeric values.
	GetInt(key string) int

	// GetFloat returns 0 for missing values. Integers are converted.
	GetFloat(key string) float64

	// Set stores and persists value.
	Set(key string, value any) error
}
