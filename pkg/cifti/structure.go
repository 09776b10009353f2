package cifti

import "fmt"

// Structure identifies an anatomical structure a brain model belongs to.
type Structure int

const (
	StructureInvalid Structure = iota
	CortexLeft
	CortexRight
	Cerebellum
	AccumbensLeft
	AccumbensRight
	AmygdalaLeft
	AmygdalaRight
	BrainStem
	CaudateLeft
	CaudateRight
	CerebellumLeft
	CerebellumRight
	DiencephalonVentralLeft
	DiencephalonVentralRight
	HippocampusLeft
	HippocampusRight
	PallidumLeft
	PallidumRight
	PutamenLeft
	PutamenRight
	ThalamusLeft
	ThalamusRight
	Other
)

var structureNames = map[Structure]string{
	CortexLeft:               "CORTEX_LEFT",
	CortexRight:              "CORTEX_RIGHT",
	Cerebellum:               "CEREBELLUM",
	AccumbensLeft:            "ACCUMBENS_LEFT",
	AccumbensRight:           "ACCUMBENS_RIGHT",
	AmygdalaLeft:             "AMYGDALA_LEFT",
	AmygdalaRight:            "AMYGDALA_RIGHT",
	BrainStem:                "BRAIN_STEM",
	CaudateLeft:              "CAUDATE_LEFT",
	CaudateRight:             "CAUDATE_RIGHT",
	CerebellumLeft:           "CEREBELLUM_LEFT",
	CerebellumRight:          "CEREBELLUM_RIGHT",
	DiencephalonVentralLeft:  "DIENCEPHALON_VENTRAL_LEFT",
	DiencephalonVentralRight: "DIENCEPHALON_VENTRAL_RIGHT",
	HippocampusLeft:          "HIPPOCAMPUS_LEFT",
	HippocampusRight:         "HIPPOCAMPUS_RIGHT",
	PallidumLeft:             "PALLIDUM_LEFT",
	PallidumRight:            "PALLIDUM_RIGHT",
	PutamenLeft:              "PUTAMEN_LEFT",
	PutamenRight:             "PUTAMEN_RIGHT",
	ThalamusLeft:             "THALAMUS_LEFT",
	ThalamusRight:            "THALAMUS_RIGHT",
	Other:                    "OTHER",
}

func (s Structure) String() string {
	if name, ok := structureNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Structure(%d)", int(s))
}

// ParseStructure converts a CIFTI structure name such as CORTEX_LEFT.
func ParseStructure(name string) (Structure, error) {
	for s, n := range structureNames {
		if n == name {
			return s, nil
		}
	}
	return StructureInvalid, fmt.Errorf("unrecognized structure name %q", name)
}

// SurfaceOrder is the fixed order in which surface structures are processed.
var SurfaceOrder = []Structure{CortexLeft, CortexRight, Cerebellum}
