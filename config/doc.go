// Package config loads service configuration with viper and godotenv.
//
// LoadConfig reads config.yml, then a .env file, then the process
// environment. Environment variables carry the service prefix and use
// underscores for nesting:
//
//	VIDSCRIBE_SERVER_PORT=9090
//	VIDSCRIBE_STORAGE_S3_BUCKET=subtitles-prod
//
// Every config struct exposes ApplyDefaults and Validate; callers run both
// after loading.
package config
