package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// DatabaseNames holds the titles of the Notion databases under the root page.
// Each title can be overridden from the environment.
type DatabaseNames struct {
	Bill     string `env:"BILL_DATABASE_NAME" envDefault:"账单"`
	Method   string `env:"METHOD_DATABASE_NAME" envDefault:"支付方式"`
	Payee    string `env:"PAYEE_DATABASE_NAME" envDefault:"商家"`
	Income   string `env:"INCOME_DATABASE_NAME" envDefault:"收支"`
	Category string `env:"CATEGORY_DATABASE_NAME" envDefault:"分类"`
	Day      string `env:"DAY_DATABASE_NAME" envDefault:"日"`
	Week     string `env:"WEEK_DATABASE_NAME" envDefault:"周"`
	Month    string `env:"MONTH_DATABASE_NAME" envDefault:"月"`
	Year     string `env:"YEAR_DATABASE_NAME" envDefault:"年"`
}

// Config is the runtime configuration of a sync run.
type Config struct {
	NotionToken string `env:"NOTION_TOKEN,required"`
	NotionPage  string `env:"NOTION_PAGE,required"`

	// ArchiveToken is sent as the Authorization header when downloading the export.
	ArchiveToken string `env:"GITHUB_TOKEN"`
	ZipPassword  string `env:"ZIP_PASSWORD"`

	WorkDir     string        `env:"BILL_WORK_DIR"`
	Timezone    string        `env:"BILL_TIMEZONE" envDefault:"Asia/Shanghai"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"0s"`

	RetryAttempts int           `env:"NOTION_RETRY_ATTEMPTS" envDefault:"3"`
	RetryDelay    time.Duration `env:"NOTION_RETRY_DELAY" envDefault:"5s"`

	ArchiveBucket         string `env:"ARCHIVE_BUCKET"`
	BigQueryProject       string `env:"BIGQUERY_PROJECT"`
	BigQueryDataset       string `env:"BIGQUERY_DATASET" envDefault:"finance"`
	GoogleCredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE"`

	Databases DatabaseNames
}

// Load reads an optional .env file and parses the process environment.
func Load(dotenvFiles ...string) (*Config, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("Load: reading .env: %w", err)
	}
	return Parse(env.Options{})
}

// Parse builds a Config from the environment described by opts.
func Parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg, opts); err != nil {
		return nil, fmt.Errorf("Parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the env tags cannot express.
func (c *Config) Validate() error {
	if c.RetryAttempts < 1 {
		return fmt.Errorf("NOTION_RETRY_ATTEMPTS must be at least 1, got %d", c.RetryAttempts)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("NOTION_RETRY_DELAY must not be negative, got %s", c.RetryDelay)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("BILL_TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the time zone transaction times are interpreted in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
