package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an inference service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if the provider runs on the user's machine.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// SupportsImageURLs returns true if the provider accepts images by URL.
func (p AIProvider) SupportsImageURLs() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// AllLLMProviders returns the providers in menu order.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderAnthropic, AIProviderOpenAI, AIProviderOllama}
}

// DefaultLLMModels returns the model used for each provider when none is set.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-sonnet-4-20250514",
	}
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible gateways).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// AgentSettings controls the classification and completion agents.
type AgentSettings struct {
	// MinDelay is the minimum spacing between two inference calls.
	MinDelay time.Duration

	// MaxImages caps how many image URLs are sent with a classification request.
	MaxImages int

	// ConfidenceFloor is the confidence below which a post is resolved to RELEVANT.
	ConfidenceFloor float64

	// MaxRetries bounds retries of transient inference failures.
	MaxRetries int

	// RetryBaseDelay is the first backoff interval.
	RetryBaseDelay time.Duration

	// Timeout bounds one inference request.
	Timeout time.Duration

	// ClassifyContentLimit and CompleteContentLimit cap the characters of
	// post text sent to each agent.
	ClassifyContentLimit int
	CompleteContentLimit int
}

// KeywordSettings holds the keyword filter lists.
type KeywordSettings struct {
	Blacklist []string
	Whitelist []string
	Broker    []string
	Negations []string
}

// GazetteerSettings points at the reference datasets.
type GazetteerSettings struct {
	// LocationsPath is a JSON file with cities, neighborhoods and landmarks.
	LocationsPath string

	// StreetsPath is the comma-delimited government street table.
	StreetsPath string
}

// StoreDriver selects the record store backend.
type StoreDriver string

// Supported store drivers.
const (
	StoreDriverSQLite   StoreDriver = "sqlite"
	StoreDriverPostgres StoreDriver = "postgres"
)

// IsValid returns true if the driver is recognised.
func (d StoreDriver) IsValid() bool {
	return d == StoreDriverSQLite || d == StoreDriverPostgres
}

// StoreSettings configures the record store.
type StoreSettings struct {
	Driver StoreDriver

	// DataDir is the SQLite data directory (default ~/.homeradar/data).
	DataDir string

	// DSN is the Postgres connection string.
	DSN string
}

// Settings is the complete, immutable application configuration.
// Changes are applied by building a new value and swapping it in.
type Settings struct {
	LLM       LLMSettings
	Agents    AgentSettings
	Keywords  KeywordSettings
	Gazetteer GazetteerSettings
	Store     StoreSettings
}

// DefaultAgentSettings returns the agent defaults.
func DefaultAgentSettings() AgentSettings {
	return AgentSettings{
		MinDelay:             500 * time.Millisecond,
		MaxImages:            4,
		ConfidenceFloor:      DefaultConfidenceFloor,
		MaxRetries:           2,
		RetryBaseDelay:       time.Second,
		Timeout:              60 * time.Second,
		ClassifyContentLimit: 500,
		CompleteContentLimit: 800,
	}
}

// DefaultKeywordSettings returns the built-in keyword lists.
func DefaultKeywordSettings() KeywordSettings {
	return KeywordSettings{
		Blacklist: []string{
			"הובלות", "קבלן שיפוצים", "שיפוצים כלליים", "ניקיון", "הדברה",
			"ייעוץ משכנתאות", "moving company", "cleaning services",
		},
		Whitelist: []string{
			"דירה למכירה", "דירה להשכרה", "apartment for sale", "apartment for rent",
		},
		Broker: []string{
			"תיווך", "מתווך", "מתווכת", "דמי תיווך", "עמלת תיווך", "broker", "brokerage", "realtor",
		},
		Negations: []string{
			"ללא", "בלי", "לא", "ללא עמלת", "בלי עמלת", "ללא עמלות", "בלי עמלות", "ללא דמי", "בלי דמי",
			"without", "no", "not", "not a", "not an", "without fee", "no fee", "without fees", "no fees",
		},
	}
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		LLM: LLMSettings{
			Provider: AIProviderAnthropic,
		},
		Agents:   DefaultAgentSettings(),
		Keywords: DefaultKeywordSettings(),
		Store: StoreSettings{
			Driver: StoreDriverSQLite,
		},
	}
}
