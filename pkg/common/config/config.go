package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers      []string
	KafkaGroupID      string
	CultureTopic      string
	AlertTopic        string
	LabFeedTopic      string
	LabFeedDLQTopic   string
	LabFeedStatusTTL  time.Duration
	LabFeedAllowedSrc []string

	// FHIR server (SMART backend services)
	FHIRBaseURL      string
	FHIRTokenURL     string
	FHIRClientID     string
	FHIRClientSecret string
	FHIRScopes       []string
	FHIRTimeout      time.Duration

	// Poller
	PollInterval   time.Duration
	PollLookback   time.Duration
	DedupeTTL      time.Duration
	DedupePrefix   string
	MaxAssessBatch int

	// Outbreak surveillance
	ClusterWindow    time.Duration
	ClusterThreshold int

	// Notifications
	NotifyChannelsPath string
	NotifyTimeout      time.Duration

	// API rate limiting
	RateLimitRPS   int
	RateLimitBurst int
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 4*1024*1024)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "stewardrx"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "stewardrx123"),
		PostgresDB:       getEnv("POSTGRES_DB", "stewardrx"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:      getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:      getEnv("KAFKA_GROUP_ID", "stewardrx-platform"),
		CultureTopic:      getEnv("CULTURE_TOPIC", "stewardrx.cultures"),
		AlertTopic:        getEnv("ALERT_TOPIC", "stewardrx.alerts"),
		LabFeedTopic:      getEnv("LABFEED_TOPIC", "stewardrx.labfeed"),
		LabFeedDLQTopic:   getEnv("LABFEED_DLQ_TOPIC", "stewardrx.labfeed.dlq"),
		LabFeedStatusTTL:  getDuration("LABFEED_STATUS_TTL", 7*24*time.Hour),
		LabFeedAllowedSrc: getStringSliceEnv("LABFEED_ALLOWED_SOURCES", []string{"lab", "hospital", "reference-lab"}),

		FHIRBaseURL:      getEnv("FHIR_BASE_URL", "http://localhost:8090/fhir"),
		FHIRTokenURL:     getEnv("FHIR_TOKEN_URL", ""),
		FHIRClientID:     getEnv("FHIR_CLIENT_ID", ""),
		FHIRClientSecret: getEnv("FHIR_CLIENT_SECRET", ""),
		FHIRScopes:       getStringSliceEnv("FHIR_SCOPES", []string{"system/*.read"}),
		FHIRTimeout:      getDuration("FHIR_TIMEOUT", 15*time.Second),

		PollInterval:   getDuration("POLL_INTERVAL", 15*time.Minute),
		PollLookback:   getDuration("POLL_LOOKBACK", 24*time.Hour),
		DedupeTTL:      getDuration("DEDUPE_TTL", 72*time.Hour),
		DedupePrefix:   getEnv("DEDUPE_PREFIX", "stewardrx:assessed:"),
		MaxAssessBatch: getIntEnv("MAX_ASSESS_BATCH", 500),

		ClusterWindow:    getDuration("CLUSTER_WINDOW", 14*24*time.Hour),
		ClusterThreshold: getIntEnv("CLUSTER_THRESHOLD", 3),

		NotifyChannelsPath: getEnv("NOTIFY_CHANNELS_PATH", ""),
		NotifyTimeout:      getDuration("NOTIFY_TIMEOUT", 10*time.Second),

		RateLimitRPS:   getIntEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
