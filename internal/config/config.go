package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr       string
	CORSOrigin string

	// Content service
	CMSBaseURL    string
	CMSAPIVersion string
	CMSProjectID  string
	CMSDataset    string

	// Image delivery
	ImageCDNURL string

	// Transport retry policy (0 attempts disables retrying)
	FetchRetries    int
	FetchRetryDelay time.Duration
	FetchRetryMax   time.Duration

	// Notice banner
	NoticeVersion   string
	NoticeDetailURL string

	// Redis - empty means the in-memory suppression store
	RedisURL string
}

func Load() Config {
	loadDotEnv()

	return Config{
		Addr:       getenv("CONTENT_ADDR", ":8788"),
		CORSOrigin: getenv("CONTENT_CORS_ORIGIN", "*"),

		CMSBaseURL:    getenv("CMS_BASE_URL", "https://mbj14vcv.api.sanity.io"),
		CMSAPIVersion: getenv("CMS_API_VERSION", "2026-02-04"),
		CMSProjectID:  getenv("CMS_PROJECT_ID", "mbj14vcv"),
		CMSDataset:    getenv("CMS_DATASET", "production"),

		ImageCDNURL: getenv("IMAGE_CDN_URL", "https://cdn.sanity.io"),

		FetchRetries:    getenvInt("CMS_FETCH_RETRIES", 0),
		FetchRetryDelay: time.Duration(getenvInt("CMS_FETCH_RETRY_DELAY_MS", 500)) * time.Millisecond,
		FetchRetryMax:   time.Duration(getenvInt("CMS_FETCH_RETRY_MAX_DELAY_MS", 10000)) * time.Millisecond,

		NoticeVersion:   getenv("NOTICE_VERSION", "recall_2026_01"),
		NoticeDetailURL: getenv("NOTICE_DETAIL_URL", "https://jbcosme.com/product-recall/"),

		RedisURL: getenv("REDIS_URL", ""),
	}
}

// loadDotEnv loads .env and .env.local when present. Already-set OS
// environment variables always win over file values.
func loadDotEnv() {
	for _, file := range []string{".env", ".env.local"} {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			log.Printf("config: failed to load %s: %v", file, err)
		}
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
