package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI       string
	DBName         string
	JWTSecret      string
	SessionSecret  string
	AccessTokenTTL time.Duration

	// PublicBaseURL is the externally reachable origin used when building
	// the gateway callback URLs (no trailing slash).
	PublicBaseURL string

	MyPOS MyPOSConfig
	Econt EcontConfig
	SMTP  SMTPConfig

	// ParcelMaxKg is the weight threshold above which a shipment is sent as
	// cargo instead of a parcel.
	ParcelMaxKg float64
}

type MyPOSConfig struct {
	BaseURL        string
	SID            string
	WalletNumber   string
	KeyIndex       string
	PrivateKeyPath string
	Currency       string
}

type EcontConfig struct {
	APIURL    string
	Username  string
	Password  string
	CitiesTTL time.Duration

	// Sender block sent with every quote and label request.
	SenderName     string
	SenderPhone    string
	SenderCity     string
	SenderPostCode string
}

type SMTPConfig struct {
	Host             string
	Port             int
	User             string
	Password         string
	ContactRecipient string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:       getEnvOrDefault("MONGO_URI", ""),
		DBName:         getEnvOrDefault("DB_NAME", "sakarela"),
		JWTSecret:      getEnvOrDefault("JWT_SECRET", ""),
		SessionSecret:  getEnvOrDefault("SESSION_SECRET", ""),
		AccessTokenTTL: getDurationEnv("ACCESS_TOKEN_TTL", 20, time.Minute),
		PublicBaseURL:  strings.TrimRight(getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		MyPOS: MyPOSConfig{
			BaseURL:        getEnvOrDefault("MYPOS_BASE_URL", "https://mypos.eu/vmp/checkout"),
			SID:            getEnvOrDefault("MYPOS_SID", ""),
			WalletNumber:   getEnvOrDefault("MYPOS_WALLET", ""),
			KeyIndex:       getEnvOrDefault("MYPOS_KEY_INDEX", "1"),
			PrivateKeyPath: getEnvOrDefault("MYPOS_PRIVATE_KEY_PATH", ""),
			Currency:       getEnvOrDefault("MYPOS_CURRENCY", "BGN"),
		},
		Econt: EcontConfig{
			APIURL:         strings.TrimRight(getEnvOrDefault("ECONT_API_URL", "https://demo.econt.com/ee/services"), "/"),
			Username:       getEnvOrDefault("ECONT_USERNAME", ""),
			Password:       getEnvOrDefault("ECONT_PASSWORD", ""),
			CitiesTTL:      getDurationEnv("ECONT_CITIES_TTL", 12, time.Hour),
			SenderName:     getEnvOrDefault("SENDER_NAME", "Сакарела"),
			SenderPhone:    getEnvOrDefault("SENDER_PHONE", ""),
			SenderCity:     getEnvOrDefault("SENDER_CITY", "София"),
			SenderPostCode: getEnvOrDefault("SENDER_POST_CODE", "1000"),
		},
		SMTP: SMTPConfig{
			Host:             getEnvOrDefault("SMTP_HOST", ""),
			Port:             getIntEnv("SMTP_PORT", 587),
			User:             getEnvOrDefault("SMTP_USER", ""),
			Password:         getEnvOrDefault("SMTP_PASSWORD", ""),
			ContactRecipient: getEnvOrDefault("CONTACT_RECIPIENT", ""),
		},
		ParcelMaxKg: getFloatEnv("SHIPMENT_PARCEL_MAX_KG", 50),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
