package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// setter assigns one scalar to the config.
type setter func(cfg *Config, val string) error

// schema lists every accepted "section.key" of config.yaml.
var schema = map[string]map[string]setter{
	"storage": {
		"driver": func(c *Config, v string) error { c.Storage.Driver = strings.ToLower(v); return nil },
	},
	"database": {
		"host":     func(c *Config, v string) error { c.Database.Host = v; return nil },
		"port":     intSetter(func(c *Config) *int { return &c.Database.Port }),
		"user":     func(c *Config, v string) error { c.Database.User = v; return nil },
		"password": func(c *Config, v string) error { c.Database.Password = v; return nil },
		"database": func(c *Config, v string) error { c.Database.Name = v; return nil },
	},
	"rabbitmq": {
		"enabled":          boolSetter(func(c *Config) *bool { return &c.RabbitMQ.Enabled }),
		"host":             func(c *Config, v string) error { c.RabbitMQ.Host = v; return nil },
		"port":             intSetter(func(c *Config) *int { return &c.RabbitMQ.Port }),
		"user":             func(c *Config, v string) error { c.RabbitMQ.User = v; return nil },
		"password":         func(c *Config, v string) error { c.RabbitMQ.Password = v; return nil },
		"handler_timeout":  durationSetter(func(c *Config) *time.Duration { return &c.RabbitMQ.HandlerTimeout }),
		"event_ttl":        durationSetter(func(c *Config) *time.Duration { return &c.RabbitMQ.EventTTL }),
		"event_max_length": intSetter(func(c *Config) *int { return &c.RabbitMQ.EventMaxLength }),
	},
	"redis": {
		"enabled":      boolSetter(func(c *Config) *bool { return &c.Redis.Enabled }),
		"addr":         func(c *Config, v string) error { c.Redis.Addr = v; return nil },
		"password":     func(c *Config, v string) error { c.Redis.Password = v; return nil },
		"db":           intSetter(func(c *Config) *int { return &c.Redis.DB }),
		"override_ttl": durationSetter(func(c *Config) *time.Duration { return &c.Redis.OverrideTTL }),
	},
	"services": {
		"ride_service":     intSetter(func(c *Config) *int { return &c.Services.RideServicePort }),
		"bucket_worker":    intSetter(func(c *Config) *int { return &c.Services.BucketWorkerPort }),
		"shutdown_timeout": durationSetter(func(c *Config) *time.Duration { return &c.Services.ShutdownTimeout }),
		"max_concurrent":   intSetter(func(c *Config) *int { return &c.Services.MaxConcurrentReqs }),
	},
	"jwt": {
		"secret_key": func(c *Config, v string) error { c.JWT.SecretKey = v; return nil },
	},
	"rydin": {
		"profile_write_timeout": durationSetter(func(c *Config) *time.Duration { return &c.Rydin.ProfileWriteTimeout }),
		"bucket_run_at":         func(c *Config, v string) error { c.Rydin.BucketRunAt = v; return nil },
		"clearance_batch":       intSetter(func(c *Config) *int { return &c.Rydin.ClearanceBatch }),
		"timezone":              func(c *Config, v string) error { c.Rydin.Timezone = v; return nil },
	},
}

// parseYAML parses the specific two-level mapping used by config.yaml
func parseYAML(r io.Reader, cfg *Config) error {
	scanner := bufio.NewScanner(r)
	var cur string

	lineNo := 0
	seenTop := map[string]bool{}

	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()

		// strip comments
		if i := strings.IndexByte(raw, '#'); i >= 0 {
			raw = raw[:i]
		}

		line := strings.TrimRight(raw, " \t\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		// top-level section? (no leading spaces)
		if line[0] != ' ' && line[0] != '\t' {
			name := strings.TrimSuffix(strings.TrimSpace(line), ":")
			if _, ok := schema[name]; !ok || !strings.HasSuffix(line, ":") {
				return fmt.Errorf("line %d: unknown top-level key %q", lineNo, name)
			}
			if seenTop[name] {
				return fmt.Errorf("line %d: duplicate %q section", lineNo, name)
			}
			seenTop[name] = true
			cur = name
			continue
		}

		// expect indented "key: value"
		if cur == "" {
			return fmt.Errorf("line %d: key without a section", lineNo)
		}
		trim := strings.TrimSpace(line)
		colon := strings.IndexByte(trim, ':')
		if colon <= 0 {
			return fmt.Errorf("line %d: expected 'key: value'", lineNo)
		}
		key := strings.TrimSpace(trim[:colon])
		val := resolveScalar(trim[colon+1:])

		set, ok := schema[cur][key]
		if !ok {
			return fmt.Errorf("line %d: unknown key in %s: %q", lineNo, cur, key)
		}
		if err := set(cfg, val); err != nil {
			return fmt.Errorf("line %d: %s.%s %v", lineNo, cur, key, err)
		}
	}

	return scanner.Err()
}

func intSetter(field func(*Config) *int) setter {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("must be int: %w", err)
		}
		*field(c) = n
		return nil
	}
}

func boolSetter(field func(*Config) *bool) setter {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("must be bool: %w", err)
		}
		*field(c) = b
		return nil
	}
}

func durationSetter(field func(*Config) *time.Duration) setter {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("must be a duration: %w", err)
		}
		*field(c) = d
		return nil
	}
}

// resolveScalar trims whitespace and removes surrounding quotes from YAML-like scalars.
// For example:
//
//	"localhost"  -> localhost
//	'password123' -> password123
//	localhost     -> localhost
func resolveScalar(s string) string {
	s = strings.TrimSpace(s)

	// if value is quoted with "..." or '...', remove quotes safely
	n := len(s)
	if n >= 2 {
		if (s[0] == '"' && s[n-1] == '"') || (s[0] == '\'' && s[n-1] == '\'') {
			if unq, err := strconv.Unquote(s); err == nil {
				return unq
			}
			// fallback if strconv.Unquote fails (e.g., mismatched quotes)
			return s[1 : n-1]
		}
	}

	return s
}
