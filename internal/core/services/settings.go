package services

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/homeradar/internal/core/domain"
	"github.com/custodia-labs/homeradar/internal/core/ports/driven"
	"github.com/custodia-labs/homeradar/internal/core/ports/driving"
	"github.com/custodia-labs/homeradar/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Ensure SettingsHolder implements the interface.
var _ driven.SettingsProvider = (*SettingsHolder)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider = "llm.provider"
	keyLLMModel    = "llm.model"
	keyLLMBaseURL  = "llm.base_url"
	keyLLMAPIKey   = "llm.api_key"

	keyAgentMinDelay      = "agents.min_delay_ms"
	keyAgentMaxImages     = "agents.max_images"
	keyAgentFloor         = "agents.confidence_floor"
	keyAgentMaxRetries    = "agents.max_retries"
	keyAgentRetryBase     = "agents.retry_base_ms"
	keyAgentTimeout       = "agents.timeout_seconds"
	keyAgentClassifyLimit = "agents.classify_content_limit"
	keyAgentCompleteLimit = "agents.complete_content_limit"

	keyBlacklist = "keywords.blacklist"
	keyWhitelist = "keywords.whitelist"
	keyBroker    = "keywords.broker"
	keyNegations = "keywords.negations"

	keyLocationsPath = "gazetteer.locations_path"
	keyStreetsPath   = "gazetteer.streets_path"

	keyStoreDriver  = "store.driver"
	keyStoreDSN     = "store.dsn"
	keyStoreDataDir = "store.data_dir"
)

// apiKeyEnv names the environment variable consulted when no key is configured.
var apiKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
}

// SettingsHolder publishes the current settings value.
// Readers get an immutable snapshot; changes replace the whole value.
type SettingsHolder struct {
	v atomic.Pointer[domain.Settings]
}

// NewSettingsHolder creates a holder with an initial value.
func NewSettingsHolder(initial domain.Settings) *SettingsHolder {
	h := &SettingsHolder{}
	h.v.Store(&initial)
	return h
}

// Current returns the published settings.
func (h *SettingsHolder) Current() *domain.Settings {
	return h.v.Load()
}

// Swap publishes next and returns the previous value.
func (h *SettingsHolder) Swap(next domain.Settings) *domain.Settings {
	return h.v.Swap(&next)
}

// SettingsService builds settings from the config store.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	holder      *SettingsHolder
}

// NewSettingsService creates a new settings service.
// holder may be nil when nothing needs to observe reloads.
func NewSettingsService(
	configStore driven.ConfigStore,
	aiValidator driven.AIConfigValidator,
	holder *SettingsHolder,
) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		holder:      holder,
	}
}

// Get builds settings from the current configuration.
// Missing or invalid values fall back to the defaults.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	provider := s.getProvider(keyLLMProvider, defaults.LLM.Provider)
	llm := domain.LLMSettings{
		Provider: provider,
		Model:    s.getString(keyLLMModel, domain.DefaultLLMModels()[provider]),
		BaseURL:  s.configStore.GetString(keyLLMBaseURL), // Empty is valid for cloud providers
		APIKey:   s.configStore.GetString(keyLLMAPIKey),
	}
	if llm.APIKey == "" {
		if env, ok := apiKeyEnv[provider]; ok {
			llm.APIKey = os.Getenv(env)
		}
	}

	da := defaults.Agents
	agents := domain.AgentSettings{
		MinDelay:             s.getMillis(keyAgentMinDelay, da.MinDelay),
		MaxImages:            s.getInt(keyAgentMaxImages, da.MaxImages),
		ConfidenceFloor:      s.getFloat(keyAgentFloor, da.ConfidenceFloor),
		MaxRetries:           s.getInt(keyAgentMaxRetries, da.MaxRetries),
		RetryBaseDelay:       s.getMillis(keyAgentRetryBase, da.RetryBaseDelay),
		Timeout:              s.getSeconds(keyAgentTimeout, da.Timeout),
		ClassifyContentLimit: s.getInt(keyAgentClassifyLimit, da.ClassifyContentLimit),
		CompleteContentLimit: s.getInt(keyAgentCompleteLimit, da.CompleteContentLimit),
	}
	if agents.ConfidenceFloor < 0 || agents.ConfidenceFloor > 1 {
		return nil, fmt.Errorf("%w: %s must be between 0 and 1, got %v",
			domain.ErrInvalidInput, keyAgentFloor, agents.ConfidenceFloor)
	}
	if agents.MaxImages < 0 || agents.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: agent limits must not be negative", domain.ErrInvalidInput)
	}

	dk := defaults.Keywords
	keywords := domain.KeywordSettings{
		Blacklist: s.getStrings(keyBlacklist, dk.Blacklist),
		Whitelist: s.getStrings(keyWhitelist, dk.Whitelist),
		Broker:    s.getStrings(keyBroker, dk.Broker),
		Negations: s.getStrings(keyNegations, dk.Negations),
	}

	store := domain.StoreSettings{
		Driver:  defaults.Store.Driver,
		DataDir: s.configStore.GetString(keyStoreDataDir),
		DSN:     s.configStore.GetString(keyStoreDSN),
	}
	if v := s.configStore.GetString(keyStoreDriver); v != "" {
		driver := domain.StoreDriver(strings.ToLower(v))
		if !driver.IsValid() {
			return nil, fmt.Errorf("%w: store driver %q", domain.ErrUnsupportedType, v)
		}
		store.Driver = driver
	}

	return &domain.Settings{
		LLM:      llm,
		Agents:   agents,
		Keywords: keywords,
		Gazetteer: domain.GazetteerSettings{
			LocationsPath: s.configStore.GetString(keyLocationsPath),
			StreetsPath:   s.configStore.GetString(keyStreetsPath),
		},
		Store: store,
	}, nil
}

// Reload re-reads the config file and publishes the result.
// On error the previously published settings stay in effect.
func (s *SettingsService) Reload() (*domain.Settings, error) {
	if err := s.configStore.Load(); err != nil {
		return nil, fmt.Errorf("reload config: %w", err)
	}
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}
	if s.holder != nil {
		s.holder.Swap(*settings)
	}
	logger.Info("settings reloaded from %s", s.configStore.Path())
	return settings, nil
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// An empty key is accepted when the environment provides one.
	if provider.RequiresAPIKey() && apiKey == "" && os.Getenv(apiKeyEnv[provider]) == "" {
		return fmt.Errorf("API key required for %s (or set %s)", provider, apiKeyEnv[provider])
	}

	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}

	baseURL := ""
	if provider.IsLocal() {
		baseURL = s.getString(keyLLMBaseURL, "http://localhost:11434")
	}

	if err := s.configStore.Set(keyLLMProvider, provider.String()); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	if err := s.configStore.Set(keyLLMModel, model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	if err := s.configStore.Set(keyLLMBaseURL, baseURL); err != nil {
		return fmt.Errorf("save llm base_url: %w", err)
	}
	if err := s.configStore.Set(keyLLMAPIKey, apiKey); err != nil {
		return fmt.Errorf("save llm api_key: %w", err)
	}

	if s.holder != nil {
		settings, err := s.Get()
		if err != nil {
			return err
		}
		s.holder.Swap(*settings)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt returns defaultVal only when key is absent, so 0 can be configured.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getMillis(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * time.Millisecond
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	secs := s.configStore.GetInt(key)
	if secs <= 0 {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

// getStrings replaces the default list only when the key is present.
func (s *SettingsService) getStrings(key string, defaultVal []string) []string {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetStringSlice(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
