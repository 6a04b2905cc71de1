// Package config provides the two configuration surfaces of the CMS.
//
// Environment configuration: type-safe env-var loading with per-type caching,
// using caarlos0/env for parsing and godotenv for .env autoloading:
//
//	type ServerConfig struct {
//		Port int `env:"PORT" envDefault:"8080"`
//	}
//
//	var cfg ServerConfig
//	config.MustLoad(&cfg)
//
// Site configuration: the mutable, JSON-file-backed store admin handlers edit
// at runtime (Get/Set/Save). It carries the declared module list with enabled
// flags, the active theme name, the site language, and the installed flag, and
// is re-read during the hot-reload path.
package config
