package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/penwyp/trimit/internal/errors"
)

// EnvAPIKey 环境变量名，优先于配置文件中的 key。
const EnvAPIKey = "TRIMIT_API_KEY"

// Config 配置文件结构，持久化于用户配置目录下的 JSON 文件。
type Config struct {
	APIKey string `json:"apiKey,omitempty"`
}

// Manager 配置管理器接口
type Manager interface {
	// Load 加载配置文件；文件不存在时返回空配置而非错误
	Load() (*Config, error)

	// Save 保存配置文件（原子操作，owner-only 权限）
	Save(config *Config) error

	// Path 返回配置文件路径
	Path() string
}

// jsonManager 读写单个 JSON 配置文件。
// 文件内容很小，每次整体读写，无需增量更新。
type jsonManager struct {
	configPath string
	mu         sync.Mutex
}

// DefaultPath 返回默认配置文件路径：<UserConfigDir>/trimit/config.json。
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(dir, "trimit", "config.json"), nil
}

// NewManager creates a Manager for the given path; an empty path
// resolves to DefaultPath.
func NewManager(configPath string) (Manager, error) {
	if configPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}
	return &jsonManager{configPath: configPath}, nil
}

func (m *jsonManager) Path() string { return m.configPath }

// Load 加载配置文件。文件缺失视为尚未配置，返回零值。
func (m *jsonManager) Load() (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", m.configPath, err)
	}
	return &config, nil
}

// Save 原子写入配置：先写临时文件再 rename，避免半写状态。
// 目录 0700、文件 0600，配置中含有凭证。
func (m *jsonManager) Save(config *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp config file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set config file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close config file: %w", err)
	}

	if err := os.Rename(tmpPath, m.configPath); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

// ResolveAPIKey 解析凭证：环境变量优先，其次配置文件。
// 两处都没有时返回 CredentialMissing 错误。
func ResolveAPIKey(m Manager) (string, error) {
	if key := os.Getenv(EnvAPIKey); key != "" {
		return key, nil
	}

	cfg, err := m.Load()
	if err != nil {
		return "", err
	}
	if cfg.APIKey != "" {
		return cfg.APIKey, nil
	}
	return "", apperrors.ErrCredentialMissing
}
