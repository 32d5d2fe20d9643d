// Package config handles configuration loading for rowan-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${ROWAN_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:3000"
//
// Database:
//
//	database:
//	  path: "/var/lib/rowan/rowan.db"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${ROWAN_JWT_SECRET}"  # Required, minimum 32 bytes
//	  token_ttl: "24h"
//
// Inference backend:
//
//	ollama:
//	  url: "http://localhost:11434"
//	  embedding_model: "nomic-embed-text"
//
// Model routing:
//
//	models:
//	  path: "routes.toml"        # Optional TOML route table
//	  default: "llama3.2-latest" # Default logical model
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - JWT secret presence and minimum length (32 bytes)
//   - Database path presence
//   - Duration format validity
//   - Logging level and format values
package config
