package config

import "os"

// Config настройки процесса; всё из окружения с дефолтами.
// REDIS_ADDR пустой — данные живут в файловом каталоге DATA_DIR.
type Config struct {
	HTTPAddr     string
	DataDir      string
	RedisAddr    string
	GeminiAPIKey string
	GeminiModel  string
	JWTSecret    string
}

func Load() Config {
	return Config{
		HTTPAddr:     getenv("HTTP_ADDR", ":9091"),
		DataDir:      getenv("DATA_DIR", "./data"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getenv("GEMINI_MODEL", "gemini-3-flash-preview"),
		JWTSecret:    getenv("JWT_SECRET", "med-bridge-dev-secret"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
