package definitions

// KM3NeT Data Definitions v2.1.0-1-ga85a9c1
// https://git.km3net.de/common/km3net-dataformat

// Trigger mask bit positions.
const (
	JTrigger3DShower = 1
	JTriggerMXShower = 2
	JTrigger3DMuon   = 4
	JTriggerNB       = 5
	FactoryLimit     = 31
)

var Trigger = map[string]int{
	"JTRIGGER3DSHOWER": JTrigger3DShower,
	"JTRIGGERMXSHOWER": JTriggerMXShower,
	"JTRIGGER3DMUON":   JTrigger3DMuon,
	"JTRIGGERNB":       JTriggerNB,
	"FACTORY_LIMIT":    FactoryLimit,
}

// DAQ datatype identifiers (v3.2.0-10-g78c1c7a).
var DAQDatatypes = map[string]int{
	"DAQSUPERFRAME":   101,
	"DAQSUMMARYFRAME": 201,
	"DAQTIMESLICE":    1001,
	"DAQTIMESLICEL0":  1002,
	"DAQTIMESLICEL1":  1003,
	"DAQTIMESLICEL2":  1004,
	"DAQTIMESLICESN":  1005,
	"DAQSUMMARYSLICE": 2001,
	"DAQEVENT":        10001,
}
