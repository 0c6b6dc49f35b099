package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string `yaml:"log-level" env-default:"info"`
	Username string `yaml:"username" env-default:""`
	Server   Server `yaml:"server"`
}

type Server struct {
	Host   string `yaml:"host" env-default:"localhost"`
	Port   string `yaml:"port" env-default:"7350"`
	Key    string `yaml:"key" env-default:"defaultkey"`
	UseSSL bool   `yaml:"use-ssl" env-default:"false"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

// BaseURL - HTTP API base, e.g. http://localhost:7350.
func (that *Server) BaseURL() string {
	scheme := "http"
	if that.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%s", scheme, that.Host, that.Port)
}

// SocketURL - realtime socket endpoint, e.g. ws://localhost:7350/ws.
func (that *Server) SocketURL() string {
	scheme := "ws"
	if that.UseSSL {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s:%s/ws", scheme, that.Host, that.Port)
}
