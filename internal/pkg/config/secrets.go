// internal/pkg/config/secrets.go
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Keys read from the Boxwise secret. The S3 pair authenticates the
// attachment and report store.
const (
	SecretDBPassword      = "DB_PASSWORD"
	SecretRedisPassword   = "REDIS_PASSWORD"
	SecretS3AccessKeyID   = "AWS_ACCESS_KEY_ID"
	SecretS3SecretKey     = "AWS_SECRET_ACCESS_KEY"
	defaultSecretCacheTTL = 5 * time.Minute
)

// SecretKeys lists every key ApplySecrets overlays
var SecretKeys = []string{SecretDBPassword, SecretRedisPassword, SecretS3AccessKeyID, SecretS3SecretKey}

type secretValueGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsManager reads a JSON object secret and caches it for a short TTL
type AWSSecretsManager struct {
	client     secretValueGetter
	secretName string
	ttl        time.Duration
	logger     *slog.Logger

	mu        sync.RWMutex
	cache     map[string]string
	lastFetch time.Time
}

var _ SecretsManager = (*AWSSecretsManager)(nil)

// NewAWSSecretsManager creates a Secrets Manager backed source
func NewAWSSecretsManager(region, secretName string, logger *slog.Logger) (*AWSSecretsManager, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newAWSSecretsManager(secretsmanager.NewFromConfig(cfg), secretName, logger), nil
}

func newAWSSecretsManager(client secretValueGetter, secretName string, logger *slog.Logger) *AWSSecretsManager {
	return &AWSSecretsManager{
		client:     client,
		secretName: secretName,
		ttl:        defaultSecretCacheTTL,
		logger:     logger.With(slog.String("component", "secrets")),
	}
}

// GetSecrets returns the requested keys present in the secret. Absent keys
// are logged and left out of the result.
func (sm *AWSSecretsManager) GetSecrets(ctx context.Context, keys []string) (map[string]string, error) {
	data, err := sm.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if v, ok := data[key]; ok {
			out[key] = v
			continue
		}
		sm.logger.Debug("secret key not present", slog.String("key", key))
	}
	return out, nil
}

func (sm *AWSSecretsManager) load(ctx context.Context) (map[string]string, error) {
	sm.mu.RLock()
	if sm.cache != nil && time.Since(sm.lastFetch) < sm.ttl {
		data := sm.cache
		sm.mu.RUnlock()
		return data, nil
	}
	sm.mu.RUnlock()

	sm.logger.Info("fetching secrets from AWS Secrets Manager",
		slog.String("secret_name", sm.secretName))

	result, err := sm.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(sm.secretName),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret value: %w", err)
	}
	if result.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", sm.secretName)
	}

	var data map[string]string
	if err := json.Unmarshal([]byte(*result.SecretString), &data); err != nil {
		return nil, fmt.Errorf("failed to parse secret JSON: %w", err)
	}

	sm.mu.Lock()
	sm.cache = data
	sm.lastFetch = time.Now()
	sm.mu.Unlock()
	return data, nil
}
