// Package config loads the store's server-wide configuration from the
// environment, in the teacher's cmd/server/main.go style: a small env(k,
// def) helper plus explicit field-by-field parsing, rather than an external
// config/mapstructure library — none appears anywhere in the retrieval
// pack's non-generated Go sources (see DESIGN.md).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// PartnerConfig is one configured replicator.partner[] entry: a named
// durable outbound queue and its capacity.
type PartnerConfig struct {
	Name  string
	Queue int
}

// Config holds every key spec.md §6.5 lists, plus the ambient keys this
// build's CLI entrypoint and transport layer need (listen address, point
// and state-group metadata file paths).
type Config struct {
	// Server (spec.md §6.5).
	ResponseLimit           int
	BackendLimit            int
	PullSleep               time.Duration
	PullDisabled            bool
	NoticesFiltered         bool
	NullRemoves             bool
	DropDeleted             bool
	Snapshot                string
	PolatorClass            string
	NotifierClass           string
	ReplicatorClass         string
	BackendClass            string
	DataDir                 string
	States                  []string
	UpdatesListenerBatchLimit int
	ReplicatorPartners      []PartnerConfig
	ReplicatedDefaults      bool
	ReplicateConverts       bool
	ResponderKeep           int
	Statements              string
	SQLCreate               bool

	// Ambient additions.
	ListenAddr                string
	Environment               string
	PointsFile                string
	StateGroupsFile           string
	SubscriptionQueueCapacity int
	ArchiveSweepInterval      time.Duration

	// pgstore (selected by BackendClass="pgstore").
	DatabaseURL string

	// JWT authenticator (internal/session.JWTConfig).
	JWTHS256Secret string
	JWTIssuer      string
	JWTJWKSURL     string
	JWTAudience    string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := env(k, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatal().Str("key", k).Str("value", v).Msg("invalid integer configuration value")
	}
	return n
}

func envBool(k string, def bool) bool {
	v := env(k, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Fatal().Str("key", k).Str("value", v).Msg("invalid boolean configuration value")
	}
	return b
}

// envSeconds reads an integer count of seconds and returns it as a
// Duration, matching the teacher's plain-integer-seconds convention
// (internal/mcpserver/auth device_delegate.go's ExpiresIn handling) rather
// than a string duration format.
func envSeconds(k string, defSeconds int) time.Duration {
	return time.Duration(envInt(k, defSeconds)) * time.Second
}

func envList(k string) []string {
	v := env(k, "")
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parsePartners parses REPLICATOR_PARTNERS as a comma-separated list of
// name:queue_capacity pairs, e.g. "hist:0,backup:5000" (a zero capacity
// selects Partner's own default).
func parsePartners(v string) []PartnerConfig {
	if v == "" {
		return nil
	}
	var out []PartnerConfig
	for _, entry := range strings.Split(v, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, queueStr, _ := strings.Cut(entry, ":")
		queue := 0
		if queueStr != "" {
			n, err := strconv.Atoi(queueStr)
			if err != nil {
				log.Fatal().Str("entry", entry).Msg("invalid REPLICATOR_PARTNERS queue capacity")
			}
			queue = n
		}
		out = append(out, PartnerConfig{Name: name, Queue: queue})
	}
	return out
}

// Load populates a Config from the environment. Every key has a default
// that applies when it is unset; a set integer or boolean key whose value
// does not parse causes a fatal log, so the server fails fast rather than
// starting with a silently broken configuration.
func Load() *Config {
	return &Config{
		ResponseLimit:             envInt("RESPONSE_LIMIT", 1000),
		BackendLimit:              envInt("BACKEND_LIMIT", 0),
		PullSleep:                 envSeconds("PULL_SLEEP_SECONDS", 60),
		PullDisabled:              envBool("PULL_DISABLED", false),
		NoticesFiltered:           envBool("NOTICES_FILTERED", false),
		NullRemoves:               envBool("NULL_REMOVES", false),
		DropDeleted:               envBool("DROP_DELETED", false),
		Snapshot:                  env("SNAPSHOT", ""),
		PolatorClass:              env("POLATOR_CLASS", ""),
		NotifierClass:             env("NOTIFIER_CLASS", ""),
		ReplicatorClass:           env("REPLICATOR_CLASS", ""),
		BackendClass:              env("BACKEND_CLASS", "memstore"),
		DataDir:                   env("DATA_DIR", "./data"),
		States:                    envList("STATES"),
		UpdatesListenerBatchLimit: envInt("UPDATES_LISTENER_BATCH_LIMIT", 1000),
		ReplicatorPartners:        parsePartners(env("REPLICATOR_PARTNERS", "")),
		ReplicatedDefaults:        envBool("REPLICATED_DEFAULTS", false),
		ReplicateConverts:         envBool("REPLICATE_CONVERTS", false),
		ResponderKeep:             envInt("RESPONDER_KEEP", 0),
		Statements:                env("STATEMENTS", ""),
		SQLCreate:                 envBool("SQL_CREATE", false),

		ListenAddr:                env("LISTEN_ADDR", ":8080"),
		Environment:               env("ENV", ""),
		PointsFile:                env("POINTS_FILE", ""),
		StateGroupsFile:           env("STATE_GROUPS_FILE", ""),
		SubscriptionQueueCapacity: envInt("SUBSCRIPTION_QUEUE_CAPACITY", 1000),
		ArchiveSweepInterval:      envSeconds("ARCHIVE_SWEEP_SECONDS", 3600),

		DatabaseURL: env("DATABASE_URL", ""),

		JWTHS256Secret: env("JWT_HS256_SECRET", ""),
		JWTIssuer:      env("JWT_ISSUER", ""),
		JWTJWKSURL:     env("JWT_JWKS_URL", ""),
		JWTAudience:    env("JWT_AUDIENCE", ""),
	}
}

// IsDev reports whether the server is running in development mode, the same
// ENV=dev convention the teacher's cmd/server/main.go uses to switch to
// console logging.
func (c *Config) IsDev() bool { return c.Environment == "dev" }
