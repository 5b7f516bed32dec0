// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/voyagerkit/core/config"
//
//	type StoreConfig struct {
//		Kind string `env:"VOYAGER_STORE" envDefault:"memory"`
//		Dir  string `env:"VOYAGER_CREDENTIAL_DIR" envDefault:".credentials"`
//		Key  string `env:"VOYAGER_CREDENTIAL_KEY"`
//	}
//
//	func main() {
//		var store StoreConfig
//		if err := config.Load(&store); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure during startup
//		config.MustLoad(&store)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime:
//
//	var a, b StoreConfig
//	config.Load(&a) // parses the environment
//	config.Load(&b) // copies the cached value
//
// Different types are cached independently:
//
//	config.MustLoad(&voyagerkit.Config{})
//	config.MustLoad(&redis.Config{})
//
// A .env file in the working directory is read once before the first load;
// variables already set in the environment take precedence.
package config
