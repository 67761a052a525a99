package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Redis       RedisConfig       `yaml:"redis"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	ParcelScope ParcelScopeConfig `yaml:"parcelscope"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type KafkaConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	LookupTopicName string `yaml:"lookup_topic_name"`
}

type ParcelScopeConfig struct {
	HTTPAddr              string `yaml:"http_addr"`
	LookupCacheTTLSeconds int    `yaml:"lookup_cache_ttl_seconds"`

	// Missing API keys leave the corresponding adapter unconfigured; that
	// removes it from selection, it is not a startup failure.
	LaPosteBaseURL string `yaml:"laposte_base_url"`
	LaPosteAPIKey  string `yaml:"laposte_api_key"`
	Track17BaseURL string `yaml:"track17_base_url"`
	Track17APIKey  string `yaml:"track17_api_key"`

	SimulatorMinLatencyMS int `yaml:"simulator_min_latency_ms"`
	SimulatorMaxLatencyMS int `yaml:"simulator_max_latency_ms"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
