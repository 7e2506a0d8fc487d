package config

import (
	"os"
	"time"

	"pujabook/internal/search"
)

// loadSearchConfig загружает конфигурацию Elasticsearch.
// Пустой ELASTICSEARCH_URL означает поиск через SQL.
func loadSearchConfig() search.Config {
	return search.Config{
		URL:        os.Getenv("ELASTICSEARCH_URL"),
		Index:      getEnv("ELASTICSEARCH_INDEX", "pujas"),
		Username:   os.Getenv("ELASTICSEARCH_USERNAME"),
		Password:   os.Getenv("ELASTICSEARCH_PASSWORD"),
		MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
		Timeout:    getEnvDuration("ELASTICSEARCH_TIMEOUT", 30*time.Second),
	}
}
