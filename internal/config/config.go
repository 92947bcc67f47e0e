// Package config reads service configuration from the environment.
// Mains load a local .env via godotenv autoload before this runs.
package config

import (
	"os"
	"strconv"
)

// Getenv returns the environment variable's value or def when unset.
func Getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetenvInt parses the environment variable as an integer, else def.
func GetenvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// PostgresURL assembles the connection string from the POSTGRES_* variables,
// unless DATABASE_URL overrides it wholesale.
func PostgresURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return "postgres://" + Getenv("POSTGRES_USER", "postgres") +
		":" + Getenv("POSTGRES_PASSWORD", "") +
		"@" + Getenv("PG_HOST", "localhost") +
		":" + Getenv("PG_PORT", "5432") +
		"/" + Getenv("PG_DATABASE", "friendsvc")
}
