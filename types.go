package autotranslate

import "golang.org/x/net/html/atom"

const (
	// IdentityAttr is the reserved attribute carrying an element's identity.
	IdentityAttr = "llm_autotranslate_uid"

	// RelativeIDAttr marks placeholder elements in minimized content.
	RelativeIDAttr = "rid"

	// DefaultBatchCharLimit is the maximum number of characters per request batch.
	DefaultBatchCharLimit = 2000

	// DefaultCharacterLimit is the page-wide character budget used when none is given.
	DefaultCharacterLimit = 4000
)

// PageViewState is the process-wide view state of a page.
type PageViewState int

const (
	StateUntranslated PageViewState = iota
	StateRequesting
	StateViewingTranslation
	StateViewingOriginal
)

func (s PageViewState) String() string {
	switch s {
	case StateUntranslated:
		return "untranslated"
	case StateRequesting:
		return "requesting"
	case StateViewingTranslation:
		return "viewing-translation"
	case StateViewingOriginal:
		return "viewing-original"
	default:
		return "unknown"
	}
}

// UnitKind tells a translator what kind of content a batch carries.
type UnitKind string

const (
	// KindElement batches carry minimized element content (markup with rid placeholders).
	KindElement UnitKind = "element"
	// KindText batches carry raw text node content.
	KindText UnitKind = "text"
)

// Unit is a single translation unit: an element record or a text unit.
type Unit interface {
	// ID returns the unit's stable identity within the page session.
	ID() string
	// Content returns the text sent to the model for this unit.
	Content() string
	// SetTranslation stores the model's translation for this unit.
	SetTranslation(translated string) error
	DisplayOriginal()
	DisplayTranslated()
}

// APIConfig is the resolved configuration for reaching the model.
type APIConfig struct {
	Endpoint    string   `json:"endpoint"`
	Key         string   `json:"key"`
	Model       string   `json:"model"`
	Role        string   `json:"role"`
	Temperature *float32 `json:"temperature,omitempty"` // nil means the provider default
}

// TargetTags are the tags collected whole as translation units.
var TargetTags = map[atom.Atom]bool{
	atom.P:      true,
	atom.Span:   true,
	atom.A:      true,
	atom.Li:     true,
	atom.Table:  true,
	atom.Td:     true,
	atom.Th:     true,
	atom.H1:     true,
	atom.H2:     true,
	atom.H3:     true,
	atom.H4:     true,
	atom.H5:     true,
	atom.H6:     true,
	atom.Button: true,
	atom.Label:  true,
}

// RTLLanguages contains language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
}
