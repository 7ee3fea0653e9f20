package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

// Config holds gateway configuration. It is loaded once at startup and
// read-only afterwards; concurrent requests share it without locking.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr  string
	Debug bool
	// AllowedOrigins configures CORS for the frontend.
	AllowedOrigins []string

	// WorkWechat identity provider (service-level credentials).
	WorkWechatURL    string
	WorkWechatAppID  string
	WorkWechatSecret string

	// UserCenterURL is the user-directory service used to map an LDAP id
	// to the canonical account. The SCPG realm segment is appended by the
	// issuer, not configured here.
	UserCenterURL string

	// IdentityLookupURL is the remote token-introspection endpoint used by
	// the default identity-resolution strategy.
	IdentityLookupURL string

	// JWT session-token settings.
	JWTSecret    string
	JWTAlgorithm string
	JWTExpiry    time.Duration

	// Upstream chat service.
	DifyAPIURL string
	DifyAPIKey string

	// UpstreamTimeout bounds every non-streaming upstream call. For
	// streaming calls it bounds connection and response headers only.
	UpstreamTimeout time.Duration
}

// Overrides optionally overrides values from environment variables.
//
// A nil pointer means "use the environment/default value".
type Overrides struct {
	Addr      *string
	Debug     *bool
	JWTSecret *string
}

// LoadEnvFiles loads .env and .env.<APP_ENV> if present. Real environment
// variables always take precedence over file values.
func LoadEnvFiles() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	// godotenv never overwrites variables that are already set.
	_ = godotenv.Load(".env." + env)
	_ = godotenv.Load(".env")
}

// Load loads gateway configuration from environment variables and applies
// any explicit overrides.
func Load(overrides Overrides) (*Config, error) {
	port := 8001
	if portStr := os.Getenv("PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}

	addr := fmt.Sprintf(":%d", port)
	if overrides.Addr != nil {
		addr = *overrides.Addr
	}

	debug := false
	if debugStr := os.Getenv("DEBUG"); debugStr == "true" || debugStr == "1" {
		debug = true
	}
	if overrides.Debug != nil {
		debug = *overrides.Debug
	}

	jwtSecret := os.Getenv("JWT_SECRET_KEY")
	if overrides.JWTSecret != nil {
		jwtSecret = *overrides.JWTSecret
	}
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is required")
	}

	algorithm := envOr("JWT_ALGORITHM", "HS256")
	if jwt.GetSigningMethod(algorithm) == nil {
		return nil, fmt.Errorf("unsupported JWT_ALGORITHM %q", algorithm)
	}

	expireMinutes := 30
	if s := os.Getenv("JWT_EXPIRE_MINUTES"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m <= 0 {
			return nil, fmt.Errorf("invalid JWT_EXPIRE_MINUTES %q", s)
		}
		expireMinutes = m
	}

	difyKey := os.Getenv("DIFY_API_KEY")
	if difyKey == "" {
		return nil, fmt.Errorf("DIFY_API_KEY environment variable is required")
	}

	origins := []string{"*"}
	if s := os.Getenv("ALLOWED_ORIGINS"); s != "" {
		origins = origins[:0]
		for _, o := range strings.Split(s, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) == 0 {
			origins = []string{"*"}
		}
	}

	timeout := 30 * time.Second
	if s := os.Getenv("UPSTREAM_TIMEOUT_SECONDS"); s != "" {
		secs, err := strconv.Atoi(s)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT_SECONDS %q", s)
		}
		timeout = time.Duration(secs) * time.Second
	}

	return &Config{
		Addr:              addr,
		Debug:             debug,
		AllowedOrigins:    origins,
		WorkWechatURL:     os.Getenv("WORK_WECHAT_URL"),
		WorkWechatAppID:   os.Getenv("WORK_WECHAT_APPID"),
		WorkWechatSecret:  os.Getenv("WORK_WECHAT_SECRET"),
		UserCenterURL:     os.Getenv("USER_CENTER_URL"),
		IdentityLookupURL: os.Getenv("SSO_IDENTITY_URL"),
		JWTSecret:         jwtSecret,
		JWTAlgorithm:      algorithm,
		JWTExpiry:         time.Duration(expireMinutes) * time.Minute,
		DifyAPIURL:        envOr("DIFY_API_URL", "http://10.201.1.46/v1"),
		DifyAPIKey:        difyKey,
		UpstreamTimeout:   timeout,
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
