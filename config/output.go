package config

import "fmt"

// OutputConfig locates the derived CSV.
type OutputConfig struct {
	Path string `json:"path"`
}

func (c *OutputConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "data/first_scheduled_proceeding.csv"
	}
}

func (c OutputConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// StoreConfig enables the optional SQLite copy of the output.
type StoreConfig struct {
	// SQLitePath is the database file; empty disables the store.
	SQLitePath string `json:"sqlite_path"`
	Table      string `json:"table"`
}

func (c *StoreConfig) SetDefaults() {
	if c.Table == "" {
		c.Table = "first_scheduled_proceeding"
	}
}
