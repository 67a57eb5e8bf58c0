package driver

// AggregateStats sums the per-function generator counters for one build.
type AggregateStats struct {
	Instructions   int64 `msgpack:"instructions"`
	BytesEstimated int64 `msgpack:"bytes_estimated"`
	RegisterSpills int64 `msgpack:"register_spills"`
	PeakPressure   int64 `msgpack:"peak_pressure"`
	LabelsCreated  int64 `msgpack:"labels_created"`
	Functions      int   `msgpack:"functions"`
}

func aggregateStats(funcs []FunctionResult) AggregateStats {
	var out AggregateStats
	for _, f := range funcs {
		out.Instructions += f.Stats.Instructions
		out.BytesEstimated += f.Stats.BytesEstimated
		out.RegisterSpills += f.Stats.RegisterSpills
		out.LabelsCreated += f.Stats.LabelsCreated
		if f.Stats.PeakPressure > out.PeakPressure {
			out.PeakPressure = f.Stats.PeakPressure
		}
	}
	out.Functions = len(funcs)
	return out
}
