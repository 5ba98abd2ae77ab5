package config

import "os"

// Store backends.
const (
	BackendLocal = "local"
	BackendMongo = "mongo"
)

// Config is the process configuration, loaded from the environment
// (godotenv fills the environment from .env first).
type Config struct {
	Port         string
	StoreBackend string

	// mongo backend
	MongoURL string
	MongoDB  string

	// local backend
	LocalDriver string // sqlite or mysql
	LocalDSN    string
}

// FromEnv reads the configuration with sensible single-machine defaults:
// an embedded sqlite store on port 8080.
func FromEnv() Config {
	cfg := Config{
		Port:         getenv("PORT", "8080"),
		StoreBackend: getenv("STORE_BACKEND", BackendLocal),
		MongoURL:     getenv("MONGO_URL", "mongodb://localhost:27017"),
		MongoDB:      getenv("MONGO_DB", "restobook"),
		LocalDriver:  getenv("LOCAL_DRIVER", "sqlite"),
		LocalDSN:     getenv("LOCAL_DSN", "restobook.db"),
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
