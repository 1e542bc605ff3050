package config

import (
	"fmt"

	"github.com/kilianp07/casesched/core/loader"
)

// LoaderConfig locates the schedule extract and tunes its parsing.
type LoaderConfig struct {
	// BaseDir is the case-data directory the extract lives in.
	BaseDir string `json:"base_dir"`
	File    string `json:"file"`
	// NAValues overrides the missing-value tokens when set.
	NAValues []string `json:"na_values"`
	// Quoting is "strip" (default) or "preserve".
	Quoting string `json:"quoting"`
	// Warnings logs each skipped line and failed coercion.
	Warnings bool `json:"warnings"`
}

// SetDefaults applies the fixed locations of the batch job.
func (c *LoaderConfig) SetDefaults() {
	if c.BaseDir == "" {
		c.BaseDir = "data/case-foia"
	}
	if c.File == "" {
		c.File = "tbl_schedule.csv"
	}
	if c.Quoting == "" {
		c.Quoting = string(loader.QuoteStrip)
	}
}

func (c LoaderConfig) Validate() error {
	if _, err := loader.ParseQuoteMode(c.Quoting); err != nil {
		return err
	}
	if c.File == "" {
		return fmt.Errorf("file is required")
	}
	return nil
}
