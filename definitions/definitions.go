// Package definitions carries the static name/integer tables of the
// KM3NeT data format (trigger flags, reconstruction stage codes, fit
// parameter indices, weight list indices, status bits). The integer
// values are part of the wire contract and are reproduced exactly as
// published in the KM3NeT-Dataformat repository.
package definitions

import "sort"

// invert builds the value -> name reverse index. Keys are visited in
// sorted order so duplicate values resolve deterministically (the
// lexicographically last name wins, matching the reference tables).
func invert(table map[string]int) map[int]string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make(map[int]string, len(table))
	for _, name := range names {
		out[table[name]] = name
	}
	return out
}

var (
	TriggerIdx        = invert(Trigger)
	ReconstructionIdx = invert(Reconstruction)
	FitparametersIdx  = invert(Fitparameters)
	W2listGenhenIdx   = invert(W2listGenhen)
	W2listGseagenIdx  = invert(W2listGseagen)
	PMTStatusIdx      = invert(PMTStatus)
	ModuleStatusIdx   = invert(ModuleStatus)
	WeightlistIdx     = invert(Weightlist)
)
