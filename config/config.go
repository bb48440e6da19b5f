package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/taskboard-api/models"
)

// Config holds the project config values
type Config struct {
	Url                string
	DatabaseName       string
	BaseUrl            string
	Port               string
	BuildMode          string
	AccessTokenSecret  string
	AccessTokenLife    time.Duration
	RefreshTokenSecret string
	RefreshTokenLife   time.Duration
	WhitelistDomains   []string
	SendgridAPIKey     string
	SendgridFromEmail  string
	CloudinaryURL      string
	CloudinaryFolder   string
	ReconcileSchedule  string
	ReconcileGrace     time.Duration
	InMemory           bool
}

// New sets up all config related services
func New() *Config {
	buildMode := os.Getenv("BUILD_MODE")

	//setup zap logger and replace default logger
	logger, err := setLogger(buildMode)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		Url:                os.Getenv("DB_URI"),
		DatabaseName:       os.Getenv("DB_NAME"),
		BaseUrl:            os.Getenv("BASE_URL"),
		Port:               getEnv("PORT", "8080"),
		BuildMode:          buildMode,
		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		AccessTokenLife:    getDuration("ACCESS_TOKEN_LIFE", time.Hour),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		RefreshTokenLife:   getDuration("REFRESH_TOKEN_LIFE", 14*24*time.Hour),
		WhitelistDomains:   splitList(os.Getenv("WHITELIST_DOMAINS")),
		SendgridAPIKey:     os.Getenv("SENDGRID_API_KEY"),
		SendgridFromEmail:  getEnv("SENDGRID_FROM_EMAIL", "no-reply@taskboard.local"),
		CloudinaryURL:      os.Getenv("CLOUDINARY_URL"),
		CloudinaryFolder:   getEnv("CLOUDINARY_UPLOAD_FOLDER", "card-covers"),
		ReconcileSchedule:  getEnv("RECONCILE_SCHEDULE", "*/15 * * * *"),
		ReconcileGrace:     getDuration("RECONCILE_GRACE", 5*time.Minute),
		InMemory:           os.Getenv("IN_MEMORY") == "true",
	}
}

// setLogger picks the zap flavour for the build mode. Anything that is not
// production or development gets the example logger used when running locally.
func setLogger(buildMode string) (*zap.Logger, error) {
	switch buildMode {
	case "production":
		return zap.NewProduction()
	case "development":
		return zap.NewDevelopment()
	default:
		return zap.NewExample(), nil
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().Errorw(message, "status", httpStatusCode, "error", err)
	w.WriteHeader(httpStatusCode)
	body, _ := json.Marshal(models.ErrorMessageResponse{
		Response: models.MessageError{Message: message, Error: fmt.Sprint(err)},
	})
	w.Write(body)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		zap.S().Warnw("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
