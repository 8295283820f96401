package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/steamhub/internal/flagx"
	"github.com/dmitrijs2005/steamhub/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Duration fields
// accept "720h"-style strings or integer nanoseconds. Fields absent from the
// file leave the current value untouched.
type JsonConfig struct {
	EndpointAddrHTTP         *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC         *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN              *string         `json:"database_dsn"`
	SecretKey                *string         `json:"secret_key"`
	WebTokenValidityDuration *timex.Duration `json:"web_token_validity_duration"`
	RedisURL                 *string         `json:"redis_url"`
	LoginLockoutThreshold    *int            `json:"login_lockout_threshold"`
	LoginLockoutWindow       *timex.Duration `json:"login_lockout_window"`
	LoginRateLimitPerMinute  *int            `json:"login_rate_limit_per_minute"`
	S3RootUser               *string         `json:"s3_root_user"`
	S3RootPassword           *string         `json:"s3_root_password"`
	S3Bucket                 *string         `json:"s3_bucket"`
	S3Region                 *string         `json:"s3_region"`
	S3BaseEndpoint           *string         `json:"s3_base_endpoint"`
	DownloadObjectKey        *string         `json:"download_object_key"`
	DownloadURLValidity      *timex.Duration `json:"download_url_validity"`
	CORSOrigin               *string         `json:"cors_origin"`
	TrustProxy               *bool           `json:"trust_proxy"`
	PublicBaseURL            *string         `json:"public_base_url"`
	LogLevel                 *string         `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c/-config.
// If no file is given nothing changes; unreadable or invalid files panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.WebTokenValidityDuration != nil {
		config.WebTokenValidityDuration = c.WebTokenValidityDuration.Duration
	}
	setString(&config.RedisURL, c.RedisURL)
	if c.LoginLockoutThreshold != nil {
		config.LoginLockoutThreshold = *c.LoginLockoutThreshold
	}
	if c.LoginLockoutWindow != nil {
		config.LoginLockoutWindow = c.LoginLockoutWindow.Duration
	}
	if c.LoginRateLimitPerMinute != nil {
		config.LoginRateLimitPerMinute = *c.LoginRateLimitPerMinute
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.DownloadObjectKey, c.DownloadObjectKey)
	if c.DownloadURLValidity != nil {
		config.DownloadURLValidity = c.DownloadURLValidity.Duration
	}
	setString(&config.CORSOrigin, c.CORSOrigin)
	if c.TrustProxy != nil {
		config.TrustProxy = *c.TrustProxy
	}
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
