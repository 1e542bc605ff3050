package config

// LogConfig controls application logging.
type LogConfig struct {
	// Level is a zerolog level name; empty keeps the library default.
	Level string `json:"level"`
}
