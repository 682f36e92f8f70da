package component

// DetectorKind selects how a thing responds to being touched or activated.
type DetectorKind int

const (
	DetectorNone DetectorKind = iota
	DetectorSight
	DetectorCutsceneTriggerer
	DetectorCutsceneResponder
	DetectorMenuTriggerer
	DetectorTheme
	DetectorTransporter
	DetectorAreaGate
	DetectorGymStatue
	DetectorHMCharacter
	DetectorSpawner
	DetectorWindow
	DetectorAreaSpawner
	DetectorTalker
	DetectorLedge
)

var detectorKindNames = map[string]DetectorKind{
	"sight":              DetectorSight,
	"cutscene_triggerer": DetectorCutsceneTriggerer,
	"cutscene_responder": DetectorCutsceneResponder,
	"menu_triggerer":     DetectorMenuTriggerer,
	"theme":              DetectorTheme,
	"transporter":        DetectorTransporter,
	"area_gate":          DetectorAreaGate,
	"gym_statue":         DetectorGymStatue,
	"hm_character":       DetectorHMCharacter,
	"spawner":            DetectorSpawner,
	"window":             DetectorWindow,
	"area_spawner":       DetectorAreaSpawner,
	"talker":             DetectorTalker,
	"ledge":              DetectorLedge,
}

// ParseDetectorKind maps a content name to a kind.
func ParseDetectorKind(name string) (DetectorKind, bool) {
	k, ok := detectorKindNames[name]
	return k, ok
}

// Transport is where a transporter sends the player. A Map switches maps at
// Location; a Location alone moves within the current map.
type Transport struct {
	Map      string `yaml:"map"`
	Location string `yaml:"location"`
}

// DialogBranch is what a dialog option leads to.
type DialogBranch struct {
	Words    []string       `yaml:"words"`
	Cutscene string         `yaml:"cutscene"`
	Options  *DialogOptions `yaml:"options"`
}

// DialogOptions is a follow-up question after a dialog.
type DialogOptions struct {
	Type    string        `yaml:"type"`
	Words   []string      `yaml:"words"`
	Options *DialogChoice `yaml:"options"`
}

// DialogChoice holds the branches of a Yes/No question.
type DialogChoice struct {
	Yes *DialogBranch `yaml:"yes"`
	No  *DialogBranch `yaml:"no"`
}

// Detector is the interaction data of a trigger or a talkable thing.
// Inactive or dead detectors ignore collisions.
type Detector struct {
	Kind      DetectorKind
	Active    bool
	KeepAlive bool

	Cutscene string
	Routine  string

	Menu           string
	MenuAttributes map[string]any
	Dialog         []string
	DialogNext     []string
	DialogOptions  *DialogOptions

	DirectionPreferred *Direction
	PushDirection      *Direction
	PushSteps          *Sequence

	Gift           string
	Trainer        bool
	AlreadyBattled bool

	Transport *Transport

	// area gates and spawners
	Map       string
	Area      string
	Direction Direction

	Theme  string
	Gym    string
	Leader string

	// Viewer owns a sight detector.
	Viewer uint64

	MoveName      string
	RequiredBadge string

	// Activate runs spawner and window detector payloads.
	Activate func(self uint64) error
}

var DetectorComponent = NewComponent[Detector]()
