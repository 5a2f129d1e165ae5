package definitions

// KM3NeT Data Definitions v2.2.0-16-gbef370c
// https://git.km3net.de/common/km3net-dataformat

// PMT status bit positions.
var PMTStatus = map[string]int{
	"PMT_DISABLE":            0,
	"HIGH_RATE_VETO_DISABLE": 1,
	"FIFO_FULL_DISABLE":      2,
	"UDP_COUNTER_DISABLE":    3,
	"UDP_TRAILER_DISABLE":    4,
	"OUT_OF_SYNC":            5,
}

// Optical module status bit positions.
var ModuleStatus = map[string]int{
	"MODULE_DISABLE":     0,
	"COMPASS_DISABLE":    1,
	"HYDROPHONE_DISABLE": 2,
	"PIEZO_DISABLE":      3,
	"MODULE_OUT_OF_SYNC": 4,
}

// Weightlist indices.
var Weightlist = map[string]int{
	"WEIGHTLIST_GENERATION_AREA":          0,
	"WEIGHTLIST_GENERATION_VOLUME":        0,
	"WEIGHTLIST_DIFFERENTIAL_EVENT_RATE":  1,
	"WEIGHTLIST_EVENT_RATE":               2,
	"WEIGHTLIST_NORMALISATION":            3,
	"WEIGHTLIST_RESCALED_EVENT_RATE":      4,
	"WEIGHTLIST_RUN_BY_RUN_WEIGHT":        5,
}

// Simulation application identifiers (v2.1.0-1-ga85a9c1).
var Applications = map[string]string{
	"APPLICATION_GENHEN":  "GENHEN",
	"APPLICATION_GSEAGEN": "gSeaGen",
	"APPLICATION_MUPAGE":  "MUPAGE",
	"APPLICATION_CORSIKA": "Corsika",
	"APPLICATION_KM3BUU":  "KM3BUU",
	"APPLICATION_KM3":     "km3",
	"APPLICATION_KM3SIM":  "KM3Sim",
	"APPLICATION_JSIRENE": "JSirene",
}
