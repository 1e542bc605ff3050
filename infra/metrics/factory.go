package metrics

import (
	"github.com/kilianp07/casesched/core/factory"
	coremetrics "github.com/kilianp07/casesched/core/metrics"
	"github.com/kilianp07/casesched/infra/mqtt"
)

var sinks = factory.NewRegistry[coremetrics.MetricsSink]()

func init() {
	builtins := map[string]factory.Factory[coremetrics.MetricsSink]{
		"nop":        newNop,
		"prometheus": newProm,
		"influx":     newInflux,
		"mqtt":       newMQTT,
	}
	for name, f := range builtins {
		_ = sinks.Register(name, f)
	}
}

// Register makes an additional sink type available to NewSink.
func Register(name string, f factory.Factory[coremetrics.MetricsSink]) error {
	return sinks.Register(name, f)
}

// NewSink builds the configured sinks. No entry yields a NopSink and several
// are fanned out through a MultiSink. When one entry fails, the sinks built
// so far are closed.
func NewSink(cfgs []factory.ModuleConfig) (coremetrics.MetricsSink, error) {
	switch len(cfgs) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks.Create(cfgs[0])
	}
	built := make([]coremetrics.MetricsSink, 0, len(cfgs))
	for _, c := range cfgs {
		s, err := sinks.Create(c)
		if err != nil {
			_ = coremetrics.NewMultiSink(built...).Close()
			return nil, err
		}
		built = append(built, s)
	}
	return coremetrics.NewMultiSink(built...), nil
}

func newNop(map[string]any) (coremetrics.MetricsSink, error) {
	return coremetrics.NopSink{}, nil
}

func newProm(conf map[string]any) (coremetrics.MetricsSink, error) {
	var c PromConfig
	if err := factory.Decode(conf, &c); err != nil {
		return nil, err
	}
	s, err := NewPromSink(c, nil)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newInflux(conf map[string]any) (coremetrics.MetricsSink, error) {
	var c InfluxConfig
	if err := factory.Decode(conf, &c); err != nil {
		return nil, err
	}
	return NewInfluxSinkWithFallback(c), nil
}

func newMQTT(conf map[string]any) (coremetrics.MetricsSink, error) {
	var c mqtt.Config
	if err := factory.Decode(conf, &c); err != nil {
		return nil, err
	}
	n, err := mqtt.NewNotifier(c)
	if err != nil {
		return nil, err
	}
	return n, nil
}
