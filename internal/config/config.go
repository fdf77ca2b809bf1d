package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Upload UploadConfig `toml:"upload"`
	Rules  RulesConfig  `toml:"rules"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// UploadConfig 上传限制
type UploadConfig struct {
	MaxSizeMB int64 `toml:"max_size_mb"`
}

// RulesConfig 参数规则表位置（param_mapping.yaml，每次解析运行重新加载）
type RulesConfig struct {
	Path string `toml:"path"`
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    18090,
			DevMode: false,
		},
		Upload: UploadConfig{
			MaxSizeMB: 10,
		},
		Rules: RulesConfig{
			Path: "param_mapping.yaml",
		},
	}
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfig 加载 config.toml：先找可执行文件目录，再找工作目录；
// 都不存在时返回默认配置
func LoadConfig() (*AppConfig, error) {
	cfg := DefaultConfig()

	var candidates []string
	if exeDir, err := GetExeDir(); err == nil {
		candidates = append(candidates, filepath.Join(exeDir, "config.toml"))
	}
	candidates = append(candidates, "config.toml")

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return cfg, nil
	}
	return cfg, nil
}
