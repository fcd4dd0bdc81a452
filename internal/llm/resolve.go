package llm

import (
	"regexp"
	"strings"

	"github.com/huimingz/shipit-go/internal/config"
	serrors "github.com/huimingz/shipit-go/internal/errors"
)

var modelIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:/-]+$`)

// Resolution is the provider and model chosen for a run
type Resolution struct {
	ID          string
	Label       string
	ModelID     string
	DisplayName string
	APIKeyEnv   string
	Provider    Provider
}

// ValidModelID reports whether id uses only letters, digits and . _ - / :
func ValidModelID(id string) bool {
	return modelIDPattern.MatchString(id)
}

// Resolve picks a provider from env. Overrides are validated strictly;
// otherwise the first registered provider with an API key wins.
// Resolution performs no network calls.
func Resolve(env config.Env, cfg *config.Config) (*Resolution, error) {
	providerRaw, providerSet := env.Lookup(config.ProviderEnv)
	modelRaw, modelSet := env.Lookup(config.ModelEnv)
	providerOverride := strings.ToLower(strings.TrimSpace(providerRaw))
	modelOverride := strings.TrimSpace(modelRaw)

	if providerSet && providerOverride == "" {
		return nil, serrors.Newf(serrors.KindConfig,
			"`%s` cannot be empty. Provide one of: %s.", config.ProviderEnv, ProviderIDs())
	}

	if modelSet && modelOverride == "" {
		return nil, serrors.Newf(serrors.KindConfig,
			"`%s` cannot be empty. Provide a model id or unset the variable.", config.ModelEnv)
	}

	if modelSet && providerOverride == "" {
		return nil, serrors.Newf(serrors.KindConfig,
			"`%s` requires `%s` to be set. Example: `%s=openai %s=gpt-5.1-codex-mini`.",
			config.ModelEnv, config.ProviderEnv, config.ProviderEnv, config.ModelEnv)
	}

	if providerOverride != "" {
		desc, ok := Lookup(providerOverride)
		if !ok {
			return nil, serrors.Newf(serrors.KindConfig,
				"Invalid `%s` value `%s`. Supported providers: %s.", config.ProviderEnv, providerOverride, ProviderIDs())
		}
		if !env.IsSet(desc.APIKeyEnv) {
			return nil, serrors.Newf(serrors.KindConfig,
				"Missing API key for %s. Set `%s` before using `%s=%s`.", desc.Label, desc.APIKeyEnv, config.ProviderEnv, desc.ID)
		}

		modelID := desc.DefaultModelID
		if modelOverride != "" {
			modelID = modelOverride
		}
		return newResolution(desc, modelID, env, cfg)
	}

	for _, desc := range registry {
		if env.IsSet(desc.APIKeyEnv) {
			return newResolution(desc, desc.DefaultModelID, env, cfg)
		}
	}

	var b strings.Builder
	b.WriteString("No AI provider API key found. Set one of the following:")
	for _, desc := range registry {
		b.WriteString("\n- ")
		b.WriteString(desc.APIKeyEnv)
	}
	return nil, serrors.New(serrors.KindConfig, b.String())
}

func newResolution(desc Descriptor, modelID string, env config.Env, cfg *config.Config) (*Resolution, error) {
	if !ValidModelID(modelID) {
		return nil, serrors.Newf(serrors.KindConfig,
			"Invalid `%s` value `%s`. Use only letters, numbers, \".\", \"_\", \"-\", \"/\", and \":\".", config.ModelEnv, modelID)
	}

	displayName := modelID
	if modelID == desc.DefaultModelID {
		displayName = desc.DefaultModelName
	}

	modelCfg := config.ModelConfig{
		Provider: desc.ID,
		APIKey:   env.Get(desc.APIKeyEnv),
		Model:    modelID,
	}
	if cfg != nil {
		modelCfg.BaseURL = cfg.BaseURL(desc.ID)
	}

	return &Resolution{
		ID:          desc.ID,
		Label:       desc.Label,
		ModelID:     modelID,
		DisplayName: displayName,
		APIKeyEnv:   desc.APIKeyEnv,
		Provider:    desc.New(modelCfg, desc.Options),
	}, nil
}
