package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Port                 string
	GroqAPIKey           string
	GroqBaseURL          string
	GroqModel            string
	GroqTemperature      float64
	GroqMaxTokens        int
	DatabaseURL          string
	TesseractCmd         string
	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string
	ReminderRecipient    string
	LocalTimezone        *time.Location
}

// Load reads configuration values and prepares defaults where applicable.
func Load() *Config {
	_ = godotenv.Load()

	timezoneName := getenvDefault("LOCAL_TIMEZONE", "Local")
	location, err := time.LoadLocation(timezoneName)
	if err != nil {
		log.Printf("config: invalid LOCAL_TIMEZONE %q, defaulting to system local: %v", timezoneName, err)
		location = time.Local
	}

	return &Config{
		Port:                 getenvDefault("PORT", "8080"),
		GroqAPIKey:           os.Getenv("GROQ_API_KEY"),
		GroqBaseURL:          getenvDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:            getenvDefault("GROQ_MODEL", "llama-3.1-8b-instant"),
		GroqTemperature:      parseFloatEnv("GROQ_TEMPERATURE", 0.7),
		GroqMaxTokens:        ParseIntEnv("GROQ_MAX_TOKENS", 1000),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		TesseractCmd:         getenvDefault("TESSERACT_CMD", "tesseract"),
		TwilioAccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppNumber: os.Getenv("TWILIO_WHATSAPP_NUMBER"),
		ReminderRecipient:    os.Getenv("REMINDER_RECIPIENT"),
		LocalTimezone:        location,
	}
}

func getenvDefault(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	return value
}

// ParseIntEnv returns the integer value for an environment variable or the provided default.
func ParseIntEnv(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as int: %v", key, value, err)
		return def
	}
	return parsed
}

func parseFloatEnv(key string, def float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as float: %v", key, value, err)
		return def
	}
	return parsed
}
