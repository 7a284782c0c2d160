package provider

// Language scope of a transcription model
type Language string

const (
	Multilingual Language = "multilingual"
	EnglishOnly  Language = "english-only"
)

// TranscriptionModel describes one speech-to-text model offered by a provider
type TranscriptionModel struct {
	ID                  string   // vendor model id (e.g., "whisper-large-v3")
	Name                string   // display name
	Language            Language // multilingual or english-only
	SupportsTranslation bool     // can translate to the provider's target language
	CostPerHour         float64  // USD per audio hour
	SpeedFactor         float64  // realtime multiple, higher is faster
	ErrorRate           float64  // empirical word error rate in percent, lower is better
}

// CompletionModel describes one text-completion model
type CompletionModel struct {
	ID            string
	Name          string
	ContextWindow int
}

// Models groups a provider's models by capability
type Models struct {
	Transcription     []TranscriptionModel
	TextCompletion    []CompletionModel
	DefaultCompletion string
}

// Capabilities are the operations a provider declares
type Capabilities struct {
	Transcription  bool
	Translation    bool
	TextCompletion bool
}

// Capability names one entry of Capabilities
type Capability string

const (
	CapabilityTranscription  Capability = "transcription"
	CapabilityTranslation    Capability = "translation"
	CapabilityTextCompletion Capability = "text completion"
)

// Has reports whether the capability flag is set.
func (c Capabilities) Has(capability Capability) bool {
	switch capability {
	case CapabilityTranscription:
		return c.Transcription
	case CapabilityTranslation:
		return c.Translation
	case CapabilityTextCompletion:
		return c.TextCompletion
	}
	return false
}

// Endpoints holds the OpenAI-compatible base URL and the per-capability paths.
// An empty path means the capability has no endpoint.
type Endpoints struct {
	BaseURL        string // e.g., "https://api.openai.com/v1"
	Transcription  string // e.g., "/audio/transcriptions"
	Translation    string
	TextCompletion string
}

// URL joins the base URL with a capability path, or returns "" when the path is empty.
func (e Endpoints) URL(path string) string {
	if path == "" {
		return ""
	}
	return e.BaseURL + path
}

// Limitations are the vendor-side limits adapters validate against before sending
type Limitations struct {
	MaxFileSize              int64   // bytes
	MinFileLength            float64 // seconds
	MinBilledLength          float64 // seconds
	SupportedFileTypes       []string
	SupportedResponseFormats []string
}

// SourceLanguagesAny marks translation from any detected language
const SourceLanguagesAny = "*"

// TranslationInfo describes translation support
type TranslationInfo struct {
	SourceLanguages []string        // {"*"} or enumerated language codes
	TargetLanguage  string          // fixed output language
	ModelSupport    map[string]bool // per transcription model id
}

// AnySource reports whether every source language is accepted.
func (t *TranslationInfo) AnySource() bool {
	return len(t.SourceLanguages) == 1 && t.SourceLanguages[0] == SourceLanguagesAny
}

// PromptGuidelines constrain the transcription prompt
type PromptGuidelines struct {
	MaxTokens     int
	BestPractices []string
	Restrictions  []string
}

// ApiProvider is an immutable catalog entry, one per vendor
type ApiProvider struct {
	ID               string
	Name             string
	Capabilities     Capabilities
	Models           Models
	Endpoints        Endpoints
	Limitations      Limitations
	Translation      *TranslationInfo // nil when translation is unsupported
	PromptGuidelines PromptGuidelines
}

// TranscriptionModel looks up a transcription model by id.
func (p ApiProvider) TranscriptionModel(id string) (TranscriptionModel, bool) {
	for _, m := range p.Models.Transcription {
		if m.ID == id {
			return m, true
		}
	}
	return TranscriptionModel{}, false
}

// SupportsTranslation reports whether the given model can translate.
// Unknown models and providers without translation metadata never do.
func (p ApiProvider) SupportsTranslation(model string) bool {
	if p.Translation == nil {
		return false
	}
	return p.Translation.ModelSupport[model]
}

// clone returns a deep copy so callers cannot mutate the catalog.
func (p ApiProvider) clone() ApiProvider {
	c := p
	c.Models.Transcription = append([]TranscriptionModel(nil), p.Models.Transcription...)
	c.Models.TextCompletion = append([]CompletionModel(nil), p.Models.TextCompletion...)
	c.Limitations.SupportedFileTypes = append([]string(nil), p.Limitations.SupportedFileTypes...)
	c.Limitations.SupportedResponseFormats = append([]string(nil), p.Limitations.SupportedResponseFormats...)
	c.PromptGuidelines.BestPractices = append([]string(nil), p.PromptGuidelines.BestPractices...)
	c.PromptGuidelines.Restrictions = append([]string(nil), p.PromptGuidelines.Restrictions...)
	if p.Translation != nil {
		t := *p.Translation
		t.SourceLanguages = append([]string(nil), p.Translation.SourceLanguages...)
		t.ModelSupport = make(map[string]bool, len(p.Translation.ModelSupport))
		for k, v := range p.Translation.ModelSupport {
			t.ModelSupport[k] = v
		}
		c.Translation = &t
	}
	return c
}
