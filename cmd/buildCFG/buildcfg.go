package buildCFG

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
)

type ServerConfig struct {
	Port string
}

type UpstreamConfig struct {
	BaseURL string
}

type AuthConfig struct {
	Email    string
	Password string
	Remember bool
}

type CacheConfig struct {
	ResponseTTL   time.Duration
	MembershipTTL time.Duration
	MaxEntries    int
}

type SessionConfig struct {
	Dir string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8090"
		log.Warn().Msg("server.port not set, defaulting to 8090")
	}
	return ServerConfig{Port: port}
}

func BuildUpstreamConfig(cfg *config.Config, log *zerolog.Logger) (UpstreamConfig, error) {
	base := cfg.GetString("upstream.base_url")
	if base == "" {
		return UpstreamConfig{}, fmt.Errorf("upstream.base_url is required")
	}
	return UpstreamConfig{BaseURL: base}, nil
}

func BuildAuthConfig(cfg *config.Config, log *zerolog.Logger) AuthConfig {
	return AuthConfig{
		Email:    cfg.GetString("auth.email"),
		Password: cfg.GetString("auth.password"),
		Remember: cfg.GetBool("auth.remember"),
	}
}

func BuildCacheConfig(cfg *config.Config, log *zerolog.Logger) CacheConfig {
	out := CacheConfig{
		ResponseTTL:   5 * time.Minute,
		MembershipTTL: 10 * time.Minute,
		MaxEntries:    cfg.GetInt("cache.max_entries"),
	}
	if raw := cfg.GetString("cache.response_ttl"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			log.Warn().Err(err).Msg("invalid cache.response_ttl, keeping default")
		} else {
			out.ResponseTTL = ttl
		}
	}
	if raw := cfg.GetString("cache.membership_ttl"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			log.Warn().Err(err).Msg("invalid cache.membership_ttl, keeping default")
		} else {
			out.MembershipTTL = ttl
		}
	}
	return out
}

func BuildSessionConfig(cfg *config.Config, log *zerolog.Logger) SessionConfig {
	dir := cfg.GetString("session.dir")
	if dir == "" {
		dir = "data"
		log.Warn().Msg("session.dir not set, defaulting to ./data")
	}
	return SessionConfig{Dir: dir}
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	url := cfg.GetString("rabbit.url")
	if url == "" {
		// Change feed is optional; an empty url disables it.
		return RabbitConfig{}, nil
	}
	out := RabbitConfig{
		Url:      url,
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if out.Exchange == "" {
		out.Exchange = "eventdeck.changes"
	}
	if out.Queue == "" {
		out.Queue = "eventdeck.changes.q"
	}
	return out, nil
}
