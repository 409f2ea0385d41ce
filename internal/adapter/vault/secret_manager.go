package vault

import (
	"errors"
	"fmt"

	"github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/seu-repo/healthvoice/pkg/config"
)

var ErrSecretNotFound = errors.New("secret not found")

type SecretManager struct {
	client *api.Client
	log    *zap.Logger
}

func NewSecretManager(address, token string, log *zap.Logger) (*SecretManager, error) {
	cfg := api.DefaultConfig()
	cfg.Address = address

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	client.SetToken(token)

	return &SecretManager{client: client, log: log}, nil
}

// GetAPIKey reads the api_key field of a KV v2 secret.
func (sm *SecretManager) GetAPIKey(path string) (string, error) {
	secret, err := sm.client.Logical().Read(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("%s: %w", path, ErrSecretNotFound)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("%s: %w", path, ErrSecretNotFound)
	}
	key, ok := data["api_key"].(string)
	if !ok || key == "" {
		return "", fmt.Errorf("%s: api_key %w", path, ErrSecretNotFound)
	}
	return key, nil
}

// FillCredentials sets the Sarvam and generation keys from Vault where the
// environment left them empty. Keys already set are never overwritten. Both
// paths are tried; failures are joined.
func (sm *SecretManager) FillCredentials(cfg *config.Config) error {
	var errs []error

	if cfg.Sarvam.APIKey == "" {
		key, err := sm.GetAPIKey(cfg.Vault.SarvamPath)
		if err != nil {
			errs = append(errs, fmt.Errorf("sarvam api key: %w", err))
		} else {
			cfg.Sarvam.APIKey = key
			sm.log.Info("Loaded Sarvam API key from Vault", zap.String("path", cfg.Vault.SarvamPath))
		}
	}

	if cfg.Generation.APIKey == "" {
		key, err := sm.GetAPIKey(cfg.Vault.GenerationPath)
		if err != nil {
			errs = append(errs, fmt.Errorf("generation api key: %w", err))
		} else {
			cfg.Generation.APIKey = key
			sm.log.Info("Loaded generation API key from Vault", zap.String("path", cfg.Vault.GenerationPath))
		}
	}

	return errors.Join(errs...)
}
