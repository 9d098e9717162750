package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config func to get env value from key
func Config(key string) string {
	// load .env file
	err := godotenv.Load(".env")
	if err != nil {
		log.Printf("Error loading .env file")
	}
	return os.Getenv(key)
}

// Duration reads a duration in seconds from env, falling back to def
// when the key is unset or malformed.
func Duration(key string, def time.Duration) time.Duration {
	value := Config(key)
	if value == "" {
		return def
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return def
	}
	return time.Duration(seconds) * time.Second
}
