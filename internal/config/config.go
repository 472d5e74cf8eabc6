package config

import (
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Service  *svcConfig
	Pipeline *pipelineConfig
}

type svcConfig struct {
	Address        string   `envconfig:"CLAIMS_PROCESSOR_ADDRESS" default:":8080"`
	MetricsAddress string   `envconfig:"CLAIMS_PROCESSOR_METRICS_ADDRESS" default:":8081"`
	BaseUrl        string   `envconfig:"CLAIMS_PROCESSOR_BASE_URL" default:"http://localhost:8080"`
	LogLevel       string   `envconfig:"CLAIMS_PROCESSOR_LOG_LEVEL" default:"info"`
	CorsOrigins    []string `envconfig:"CLAIMS_PROCESSOR_CORS_ORIGINS" default:"*"`
	RegistryUrl    string   `envconfig:"CLAIMS_PROCESSOR_REGISTRY_URL" default:""`
}

type pipelineConfig struct {
	Workers    int    `envconfig:"CLAIMS_PROCESSOR_WORKERS" default:"4"`
	QueueDepth int    `envconfig:"CLAIMS_PROCESSOR_QUEUE_DEPTH" default:"64"`
	UploadDir  string `envconfig:"CLAIMS_PROCESSOR_UPLOAD_DIR" default:"temp_uploads"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}
