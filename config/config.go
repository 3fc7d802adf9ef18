package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// MongoDB (document store: shiftReports, users, userNotifications)
	MongoURI string
	MongoDB  string

	// Postgres (operational audit trail)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTAccessSecret   string
	JWTAccessTTLHours int

	// Redis Config
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Kafka Config
	KafkaBrokers    string
	KafkaIssueTopic string
	KafkaGroupID    string

	// FCM Config
	FCMCredentialsPath string // Path to Firebase service account JSON
	FCMProjectID       string // Firebase Project ID (optional, can be in JSON)

	// Bounded timeout for each store / push gateway call, in seconds
	DispatchTimeoutSecs int
}

// Load reads environment variables and returns a Config object
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file, using environment variables")
	}

	accessTTL, _ := strconv.Atoi(os.Getenv("JWT_ACCESS_TTL_HOURS"))
	if accessTTL == 0 {
		accessTTL = 12
	}
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	dispatchTimeout, _ := strconv.Atoi(os.Getenv("DISPATCH_TIMEOUT_SECS"))
	if dispatchTimeout == 0 {
		dispatchTimeout = 10
	}

	return &Config{
		Port: getenv("PORT", "8080"),

		MongoURI: getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getenv("MONGO_DB", "shiftwise"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		JWTAccessSecret:   os.Getenv("JWT_ACCESS_SECRET"),
		JWTAccessTTLHours: accessTTL,

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		KafkaBrokers:    getenv("KAFKA_BROKERS", "localhost:9092"),
		KafkaIssueTopic: getenv("KAFKA_ISSUE_TOPIC", "issue-updates"),
		KafkaGroupID:    getenv("KAFKA_GROUP_ID", "shiftwise-notifications"),

		FCMCredentialsPath: os.Getenv("FCM_CREDENTIALS_PATH"),
		FCMProjectID:       os.Getenv("FCM_PROJECT_ID"),

		DispatchTimeoutSecs: dispatchTimeout,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
