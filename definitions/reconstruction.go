package definitions

// KM3NeT Data Definitions v2.0.0-9-gbae3720
// https://git.km3net.de/common/km3net-dataformat

// Reconstruction stage code ranges. Each reconstruction program owns a
// contiguous code block; a track's rec_stages values identify which
// stages of which program produced it.
const (
	JPPReconstructionType = 4000
	JMuonBegin            = 0
	JMuonPrefit           = 1
	JMuonSimplex          = 2
	JMuonGandalf          = 3
	JMuonEnergy           = 4
	JMuonStart            = 5
	JLineFit              = 6
	JMuonEnd              = 99
	JShowerBegin          = 100
	JShowerPrefit         = 101
	JShowerPositionFit    = 102
	JShowerCompleteFit    = 103
	JShowerBjorkenY       = 104
	JShowerEnergyPrefit   = 105
	JShowerPointSimplex   = 106
	JShowerDirectionPrefit = 107
	JShowerEnd            = 199
	DusjReconstructionType = 200
	DusjShowerBegin       = 200
	DusjShowerPrefit      = 201
	DusjShowerPositionFit = 202
	DusjShowerCompleteFit = 203
	DusjShowerEnd         = 299
	AanetReconstructionType = 101
	AAShowerBegin         = 300
	AAShowerFitPrefit     = 302
	AAShowerFitPositionFit = 303
	AAShowerFitDirectionEnergyFit = 304
	AAShowerEnd           = 399
	JUserBegin            = 1000
	JMuonVeto             = 1001
	JMuonPath             = 1003
	JMCEvt                = 1004
	JUserEnd              = 1099
	RecTypeUnknown        = -1
	RecStageUnknown       = -1
)

var Reconstruction = map[string]int{
	"JPP_RECONSTRUCTION_TYPE":           JPPReconstructionType,
	"JMUONBEGIN":                        JMuonBegin,
	"JMUONPREFIT":                       JMuonPrefit,
	"JMUONSIMPLEX":                      JMuonSimplex,
	"JMUONGANDALF":                      JMuonGandalf,
	"JMUONENERGY":                       JMuonEnergy,
	"JMUONSTART":                        JMuonStart,
	"JLINEFIT":                          JLineFit,
	"JMUONEND":                          JMuonEnd,
	"JSHOWERBEGIN":                      JShowerBegin,
	"JSHOWERPREFIT":                     JShowerPrefit,
	"JSHOWERPOSITIONFIT":                JShowerPositionFit,
	"JSHOWERCOMPLETEFIT":                JShowerCompleteFit,
	"JSHOWER_BJORKEN_Y":                 JShowerBjorkenY,
	"JSHOWERENERGYPREFIT":               JShowerEnergyPrefit,
	"JSHOWERPOINTSIMPLEX":               JShowerPointSimplex,
	"JSHOWERDIRECTIONPREFIT":            JShowerDirectionPrefit,
	"JSHOWEREND":                        JShowerEnd,
	"DUSJ_RECONSTRUCTION_TYPE":          DusjReconstructionType,
	"DUSJSHOWERBEGIN":                   DusjShowerBegin,
	"DUSJSHOWERPREFIT":                  DusjShowerPrefit,
	"DUSJSHOWERPOSITIONFIT":             DusjShowerPositionFit,
	"DUSJSHOWERCOMPLETEFIT":             DusjShowerCompleteFit,
	"DUSJSHOWEREND":                     DusjShowerEnd,
	"AANET_RECONSTRUCTION_TYPE":         AanetReconstructionType,
	"AASHOWERBEGIN":                     AAShowerBegin,
	"AASHOWERFITPREFIT":                 AAShowerFitPrefit,
	"AASHOWERFITPOSITIONFIT":            AAShowerFitPositionFit,
	"AASHOWERFITDIRECTIONENERGYFIT":     AAShowerFitDirectionEnergyFit,
	"AASHOWEREND":                       AAShowerEnd,
	"JUSERBEGIN":                        JUserBegin,
	"JMUONVETO":                         JMuonVeto,
	"JMUONPATH":                         JMuonPath,
	"JMCEVT":                            JMCEvt,
	"JUSEREND":                          JUserEnd,
	"RECTYPE_UNKNOWN":                   RecTypeUnknown,
	"RECSTAGE_UNKNOWN":                  RecStageUnknown,
}
