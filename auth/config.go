// SPDX-License-Identifier: ice License 1.0

package auth

import (
	"dario.cat/mergo"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/pkg/errors"

	"github.com/aarontxz/promptly/auth/internal/google"
	"github.com/aarontxz/promptly/auth/internal/kdf"
	appCfg "github.com/aarontxz/promptly/config"
)

// LoadConfig reads the `promptly/auth` section under applicationYAMLKey. Secrets found in the environment take precedence.
func LoadConfig(applicationYAMLKey string) (*Config, error) {
	var cfg applicationConfig
	if err := appCfg.LoadFromKey(applicationYAMLKey, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to load %v config", configKey)
	}
	cfg.Auth.loadEnv(applicationYAMLKey)

	return &cfg.Auth, nil
}

func (cfg *Config) loadEnv(applicationYAMLKey string) {
	for name, field := range map[string]*string{
		envSigningSecret: &cfg.SigningSecret,
		envSessionSecret: &cfg.SessionSecret,
		envClientID:      &cfg.Provider.Audience,
	} {
		if val := appCfg.Env(applicationYAMLKey, name); val != "" {
			*field = val
		}
	}
}

// WithDefaults returns a copy of cfg with every unset optional field filled in.
func (cfg *Config) WithDefaults() (*Config, error) {
	res := *cfg
	if err := mergo.Merge(&res, defaultConfig()); err != nil {
		return nil, errors.Wrap(err, "failed to apply config defaults")
	}

	return &res, nil
}

func (cfg Config) Validate() error {
	return validation.ValidateStruct(&cfg, //nolint:wrapcheck // Field errors are already descriptive.
		validation.Field(&cfg.SigningSecret,
			validation.Required,
			validation.NotIn(insecureSecret).Error("must not be the well-known placeholder"),
			validation.Length(minSigningSecretBytes, 0)),
		validation.Field(&cfg.SessionSecret, validation.Required),
		validation.Field(&cfg.SessionKeyLabel, validation.Required),
		validation.Field(&cfg.Provider),
		validation.Field(&cfg.AccessTokenTTL, validation.Min(0)),
		validation.Field(&cfg.LoginTokenTTL, validation.Min(0)),
		validation.Field(&cfg.TrustedHeader),
	)
}

func (cfg ProviderConfig) Validate() error {
	return validation.ValidateStruct(&cfg, //nolint:wrapcheck // Field errors are already descriptive.
		validation.Field(&cfg.Audience, validation.Required),
	)
}

func (cfg TrustedHeaderConfig) Validate() error {
	if !cfg.Enabled {
		return nil
	}

	return validation.ValidateStruct(&cfg, //nolint:wrapcheck // Field errors are already descriptive.
		validation.Field(&cfg.HeaderName, validation.Required),
	)
}

func defaultConfig() *Config {
	return &Config{
		SessionKeyLabel: kdf.NextAuthLabel,
		AccessTokenTTL:  DefaultAccessTokenTTL,
		LoginTokenTTL:   DefaultLoginTokenTTL,
		Provider: ProviderConfig{
			CertsURL:     google.DefaultCertsURL,
			FetchTimeout: google.DefaultFetchTimeout,
		},
		TrustedHeader: TrustedHeaderConfig{
			HeaderName: DefaultTrustedHeaderName,
		},
	}
}
