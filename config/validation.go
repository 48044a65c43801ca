package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()
	var errs []ValidationError

	if port, err := strconv.Atoi(cfg.ServerPort); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, ValidationError{"SERVER_PORT", fmt.Sprintf("invalid port %q", cfg.ServerPort)})
	}

	switch cfg.DBDriver {
	case "postgres":
		required := []struct{ field, value string }{
			{"DB_HOST", cfg.DBHost},
			{"DB_PORT", cfg.DBPort},
			{"DB_NAME", cfg.DBName},
			{"DB_USER", cfg.DBUser},
		}
		for _, r := range required {
			if r.value == "" {
				errs = append(errs, ValidationError{r.field, "is required for the postgres driver"})
			}
		}
		if env == Production || env == CI {
			if cfg.DBPassword == "" {
				errs = append(errs, ValidationError{"DB_PASSWORD", "is required in " + string(env)})
			}
		}
	case "sqlite":
		if cfg.SQLitePath == "" {
			errs = append(errs, ValidationError{"SQLITE_PATH", "is required for the sqlite driver"})
		}
	default:
		errs = append(errs, ValidationError{"DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	switch cfg.CatalogSource {
	case CatalogSourceFile:
		if cfg.CatalogPath == "" {
			errs = append(errs, ValidationError{"CATALOG_PATH", "is required for a file catalog"})
		}
	case CatalogSourceS3:
		if cfg.CatalogBucket == "" {
			errs = append(errs, ValidationError{"CATALOG_BUCKET", "is required for an s3 catalog"})
		}
		if cfg.CatalogKey == "" {
			errs = append(errs, ValidationError{"CATALOG_KEY", "is required for an s3 catalog"})
		}
	case CatalogSourceDatabase:
	default:
		errs = append(errs, ValidationError{"CATALOG_SOURCE", fmt.Sprintf("unsupported source %q", cfg.CatalogSource)})
	}

	if cfg.CatalogRefresh <= 0 {
		errs = append(errs, ValidationError{"CATALOG_REFRESH_INTERVAL", "must be positive"})
	}

	if len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(msgs, "\n"))
	}

	return nil
}
