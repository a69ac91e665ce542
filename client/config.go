package client

import (
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v11"

	"tokyobot/protocol"
)

// Config 连接凭据；四个字段都必须提供，核心不补默认值
type Config struct {
	ServerHost          string `json:"serverHost" env:"TOKYO_SERVER_HOST,required,notEmpty"`
	APIKey              string `json:"apiKey" env:"TOKYO_API_KEY,required,notEmpty"`
	UserName            string `json:"userName" env:"TOKYO_USER_NAME,required,notEmpty"`
	UseSecureConnection bool   `json:"useSecureConnection" env:"TOKYO_SECURE,required"`
}

// LoadConfig 从环境变量读取凭据
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate 检查必填字段
func (c Config) Validate() error {
	switch {
	case c.ServerHost == "":
		return fmt.Errorf("%w: serverHost is required", ErrInvalidConfig)
	case c.APIKey == "":
		return fmt.Errorf("%w: apiKey is required", ErrInvalidConfig)
	case c.UserName == "":
		return fmt.Errorf("%w: userName is required", ErrInvalidConfig)
	}
	return nil
}

// URL 形如 wss://host/socket?key=<apiKey>&name=<userName>
func (c Config) URL() string {
	scheme := "ws"
	if c.UseSecureConnection {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s%s?key=%s&name=%s",
		scheme, c.ServerHost, protocol.SocketPath,
		url.QueryEscape(c.APIKey), url.QueryEscape(c.UserName))
}

// redact 日志里隐藏 api key
func redact(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return "<invalid target>"
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "***")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
