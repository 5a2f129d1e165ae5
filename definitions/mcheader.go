package definitions

// MCHeader maps file-header keys to the expected field names their
// whitespace-separated values are matched against. Keys absent from
// this table keep their raw single value.
var MCHeader = map[string][]string{
	"DAQ":           {"livetime"},
	"seed":          {"program", "level", "iseed"},
	"PM1_type_area": {"type", "area", "TTS"},
	"PDF":           {"i1", "i2"},
	"model":         {"interaction", "muon", "scattering", "numberOfEnergyBins"},
	"can":           {"zmin", "zmax", "r"},
	"genvol":        {"zmin", "zmax", "r", "volume", "numberOfEvents"},
	"merge":         {"time", "gain"},
	"coord_origin":  {"x", "y", "z"},
	"translate":     {"x", "y", "z"},
	"genhencut":     {"gDir", "Emin"},
	"k40":           {"rate", "time"},
	"norma":         {"primaryFlux", "numberOfPrimaries"},
	"livetime":      {"numberOfSeconds", "errorOfSeconds"},
	"flux":          {"type", "key", "file_1", "file_2"},
	"spectrum":      {"alpha"},
	"fixedcan":      {"xcenter", "ycenter", "zmin", "zmax", "radius"},
	"start_run":     {"run_id"},

	"cut_primary": {"Emin", "Emax", "cosTmin", "cosTmax"},
	"cut_seamuon": {"Emin", "Emax", "cosTmin", "cosTmax"},
	"cut_in":      {"Emin", "Emax", "cosTmin", "cosTmax"},
	"cut_nu":      {"Emin", "Emax", "cosTmin", "cosTmax"},

	"generator": {"program", "version", "date", "time"},
	"physics":   {"program", "version", "date", "time"},
	"simul":     {"program", "version", "date", "time"},
}
