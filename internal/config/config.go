package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries the process-level settings for the marketplace service.
// Values come from the environment, with a .env file loaded first when
// present so local runs need no exported variables.
type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string

	// Persistence selects the repository backend: "memory" or "mongo".
	Persistence string
	MongoURI    string
	MongoDB     string

	// Events selects the event transport bridged off the in-process bus:
	// "memory" keeps events in-process, "nats" also publishes to NATS.
	Events  string
	NATSURL string

	// SalesCSV points at the historical sales file used by the forecaster.
	SalesCSV string

	SMTPHost     string
	SMTPPort     int
	SMTPSender   string
	SMTPPassword string
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		ServiceName: getEnv("SERVICE_NAME", "krishibazaar-marketplace"),
		Env:         getEnv("ENV", "development"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),

		Persistence: getEnv("PERSISTENCE", "memory"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getEnv("MONGO_DB", "krishibazaar"),

		Events:  getEnv("EVENTS", "memory"),
		NATSURL: getEnv("NATS_URL", "nats://localhost:4222"),

		SalesCSV: getEnv("SALES_CSV", "data/sales_history.csv"),

		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPSender:   os.Getenv("SMTP_SENDER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
