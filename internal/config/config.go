package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type TickMode string

const (
	TickClient TickMode = "client" // presentation layer calls POST /attempt/tick
	TickServer TickMode = "server" // session.Scheduler ticks every TickInterval
)

type Config struct {
	Mode     Mode
	HTTPAddr string
	LogMode  string
	SiteID   string

	StoreDriver string // memory|fs|sql|redis|mongo

	DBDriver string
	DBDSN    string

	BlobBasePath string // for fs

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	MongoURI      string
	MongoDatabase string

	AMQPURL      string
	AMQPExchange string

	ContentURL  string // GET {ContentURL}/lesson
	ContentFile string // json or yaml, used when ContentURL is empty

	TrialBudget  int
	TimerSeconds int
	AllowRevisit bool
	TickMode     TickMode
	TickInterval time.Duration

	AuthHMACSecret  string
	EnableLocalAuth bool
	EnableGuestAuth bool
	LearnerPassHash string // bcrypt; empty means no passcode
	AuthorUser      string
	AuthorPassHash  string // bcrypt; empty disables author login
	AdminSubjects   []string

	EventLog bool // append outcome signals to event_log

	CORSOriginsOnline  []string
	CORSOriginsOffline []string
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	tick := TickMode(strings.ToLower(envOr("TICK_MODE", string(TickClient))))
	if tick != TickServer {
		tick = TickClient
	}
	return Config{
		Mode:     mode,
		HTTPAddr: addr,
		LogMode:  envOr("LOG_MODE", "dev"),
		SiteID:   envOr("SITE_ID", "local"),

		StoreDriver:  envOr("STORE_DRIVER", "sql"),
		DBDriver:     envOr("DB_DRIVER", "sqlite"),
		DBDSN:        envOr("DB_DSN", ""),
		BlobBasePath: envOr("BLOB_BASE_PATH", "./data"),

		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),
		RedisPrefix:   envOr("REDIS_PREFIX", "lessonrunner:"),

		MongoURI:      envOr("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: envOr("MONGO_DATABASE", "lessonrunner"),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: envOr("AMQP_EXCHANGE", "lesson.events"),

		ContentURL:  os.Getenv("CONTENT_URL"),
		ContentFile: envOr("CONTENT_FILE", "./lesson.json"),

		TrialBudget:  envInt("TRIAL_BUDGET", 3),
		TimerSeconds: envInt("TIMER_SECONDS", 300),
		AllowRevisit: envBool("ALLOW_REVISIT", false),
		TickMode:     tick,
		TickInterval: envDuration("TICK_INTERVAL", time.Second),

		AuthHMACSecret:  envOr("AUTH_HMAC_SECRET", "dev-secret-change-me"),
		EnableLocalAuth: envBool("ENABLE_LOCAL_AUTH", true),
		EnableGuestAuth: envBool("ENABLE_GUEST_AUTH", mode == ModeOffline),
		LearnerPassHash: os.Getenv("LEARNER_PASS_HASH"),
		AuthorUser:      envOr("AUTHOR_USER", "author"),
		AuthorPassHash:  os.Getenv("AUTHOR_PASS_HASH"),
		AdminSubjects:   csvOr("ADMIN_SUBJECTS", ""),

		EventLog: envBool("EVENT_LOG", true),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://learn.example.com"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:8081,http://localhost:19006"),
	}
}

func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
func envDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
