package provider

// Provider ids used as catalog keys and in provider_config
const (
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
)

// Environment variable names for API tokens
const (
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvGroqKey   = "GROQ_API_KEY"
)

// EnvVarForProvider returns the environment variable holding a provider's token
func EnvVarForProvider(id string) string {
	switch id {
	case ProviderOpenAI:
		return EnvOpenAIKey
	case ProviderGroq:
		return EnvGroqKey
	default:
		return ""
	}
}
