package metrics

import "github.com/kilianp07/casesched/core/factory"

// Config lists the sinks a run reports to.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
}
