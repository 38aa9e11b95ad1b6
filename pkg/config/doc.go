// Package config loads env-tagged configuration structs.
//
// The first call reads a .env file from the working directory when one
// exists (github.com/joho/godotenv), then github.com/caarlos0/env/v11 parses
// the process environment into the struct. Results are cached per type, so
// every package can call Load on its own Config without re-parsing.
//
// A struct that implements Validator is validated after parsing; a failing
// config is never cached.
//
//	var cfg secrets.Config
//	config.MustLoad(&cfg)
package config
