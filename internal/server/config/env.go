package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/steamhub/internal/flagx"
	"github.com/joho/godotenv"
)

// loadDotEnv is a seam for tests.
var loadDotEnv = godotenv.Load

// parseEnv loads an optional dotenv file (-env flag, otherwise ./.env) into
// the process environment and copies the recognised variables into config.
// Variables that are already set in the environment are not overridden by
// the file. A missing default .env file is not an error.
func parseEnv(config *Config) {
	if path := flagx.EnvFileFlag(); path != "" {
		if err := loadDotEnv(path); err != nil {
			panic(err)
		}
	} else {
		_ = loadDotEnv()
	}

	envString("HTTP_ADDR", &config.EndpointAddrHTTP)
	envString("GRPC_ADDR", &config.EndpointAddrGRPC)
	envString("DATABASE_URL", &config.DatabaseDSN)
	envString("JWT_SECRET", &config.SecretKey)
	envDuration("JWT_TTL", &config.WebTokenValidityDuration)
	envString("REDIS_URL", &config.RedisURL)
	envInt("LOGIN_LOCKOUT_THRESHOLD", &config.LoginLockoutThreshold)
	envDuration("LOGIN_LOCKOUT_WINDOW", &config.LoginLockoutWindow)
	envInt("LOGIN_RATE_LIMIT", &config.LoginRateLimitPerMinute)
	envString("S3_ACCESS_KEY", &config.S3RootUser)
	envString("S3_SECRET_KEY", &config.S3RootPassword)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_ENDPOINT", &config.S3BaseEndpoint)
	envString("DOWNLOAD_OBJECT_KEY", &config.DownloadObjectKey)
	envDuration("DOWNLOAD_URL_TTL", &config.DownloadURLValidity)
	envString("CORS_ORIGIN", &config.CORSOrigin)
	envBool("TRUST_PROXY", &config.TrustProxy)
	envString("PUBLIC_BASE_URL", &config.PublicBaseURL)
	envString("LOG_LEVEL", &config.LogLevel)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		*dst = n
	}
}

func envBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		*dst = b
	}
}

func envDuration(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		*dst = d
	}
}
