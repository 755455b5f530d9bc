// Package config provides centralized configuration management for Streamcast.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file (streamcast.yaml or configs/streamcast.yaml)
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern STREAMCAST_<SECTION>_<FIELD>:
//
//	STREAMCAST_SERVER_PORT=8080
//	STREAMCAST_LOGGING_LEVEL=debug
//	STREAMCAST_PATHS_MODELS_DIR=/srv/models
//	STREAMCAST_NORMALIZER_PLACEHOLDER_TRACK_ID=uploaded_track_1
//	STREAMCAST_FORECAST_SCALER=fixed
//	STREAMCAST_FORECAST_SCALER_STATS_FILE=/srv/models/scaler.json
//	STREAMCAST_FORECAST_QUANTILE_POLICY=sort
//
// The merged configuration is validated with go-playground/validator before use.
package config
