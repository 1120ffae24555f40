package config

import "os"

// Config gathers every environment-provided setting. godotenv is loaded by
// main before Load runs, so plain os.Getenv is enough here.
type Config struct {
	Port          string
	MongoURI      string
	MongoDatabase string

	SMTPServer  string
	SMTPPort    string
	SMTPUser    string
	SMTPPass    string
	FromAddress string

	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string // e.g. "whatsapp:+14155238886"

	AIBaseURL string
	AIAPIKey  string

	FirebaseCredentials string

	CORSOrigins []string
	UploadDir   string
}

// Load reads the configuration from the environment, applying deployment
// defaults.
func Load() *Config {
	cfg := &Config{
		Port:                getEnv("PORT", "3000"),
		MongoURI:            os.Getenv("DB_URI"),
		MongoDatabase:       getEnv("MONGO_DATABASE", "smartdoc"),
		SMTPServer:          os.Getenv("EMAIL_SMTP_SERVER"),
		SMTPPort:            getEnv("EMAIL_SMTP_PORT", "587"),
		SMTPUser:            os.Getenv("EMAIL_USERNAME"),
		SMTPPass:            os.Getenv("EMAIL_PASSWORD"),
		FromAddress:         os.Getenv("EMAIL_FROM_ADDRESS"),
		TwilioAccountSID:    os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:     os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber:   os.Getenv("TWILIO_PHONE_NUMBER"),
		AIBaseURL:           getEnv("FASTAPI_BASE_URL", "http://localhost:8000"),
		AIAPIKey:            os.Getenv("FASTAPI_API_KEY"),
		FirebaseCredentials: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		CORSOrigins:         []string{getEnv("CORS_ORIGIN", "http://localhost:5173")},
		UploadDir:           getEnv("UPLOAD_DIR", "uploads"),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
