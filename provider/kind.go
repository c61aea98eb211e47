// File: provider/kind.go
package provider

// Kind names a provider backend family. Only OpenAI and Anthropic have
// full stream adapters wired in stream/; the rest are capability-set
// stubs behind the same api.Provider interface, since concrete
// endpoints for them are out of scope here.
type Kind string

const (
	KindOpenAI    Kind = "openai"
	KindAnthropic Kind = "anthropic"
	KindGemini    Kind = "gemini"
	KindBedrock   Kind = "bedrock"
	KindAzure     Kind = "azure"
	KindXai       Kind = "xai"
	KindVertex    Kind = "vertex"
)
