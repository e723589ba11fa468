package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/tradeunity/salesintel/pkg/apperrors"
	"github.com/tradeunity/salesintel/pkg/parse"
)

// Report family names accepted in the reports list.
const (
	ReportEnrichedSales = "enriched-sales"
	ReportCustomers     = "customers"
	ReportOpportunities = "opportunities"
	ReportInventory     = "inventory"
	ReportCalendar      = "calendar"
	ReportPricing       = "pricing"
)

// AllReports lists every report family in the order the pipeline emits them.
var AllReports = []string{
	ReportEnrichedSales,
	ReportCustomers,
	ReportOpportunities,
	ReportInventory,
	ReportCalendar,
	ReportPricing,
}

// Config holds all configuration for a pipeline run.
// Configuration comes from config.yaml with environment variable overrides.
// Secrets (database passwords) must only come from environment variables.
type Config struct {
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// ReferenceDateStr anchors every "days since" metric (YYYY-MM-DD).
	// Empty means the day the pipeline runs.
	ReferenceDateStr string    `yaml:"reference_date" env:"REFERENCE_DATE" env-default:""`
	ReferenceDate    time.Time `yaml:"-"`

	// Input files, one per dataset
	Inputs InputsConfig `yaml:"inputs"`

	// Output directory for workbooks and CSVs
	Output OutputConfig `yaml:"output"`

	// ReportsStr is a comma-separated list of report families to build.
	ReportsStr string   `yaml:"reports" env:"REPORTS" env-default:"enriched-sales,customers,opportunities,inventory,calendar,pricing"`
	Reports    []string `yaml:"-"`

	Customers CustomersConfig `yaml:"customers"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Sinks     SinksConfig     `yaml:"sinks"`
}

// InputFile describes one CSV input and the date format family it uses.
type InputFile struct {
	Path       string `yaml:"path" env:"FILE"`
	DateFormat string `yaml:"date_format" env:"DATE_FORMAT"`
}

// InputsConfig holds every input file of the pipeline.
type InputsConfig struct {
	Dir          string    `yaml:"dir" env:"INPUT_DIR" env-default:"data"`
	Sales        InputFile `yaml:"sales" env-prefix:"INPUT_SALES_"`
	Catalog      InputFile `yaml:"catalog" env-prefix:"INPUT_CATALOG_"`
	CEGPrices    InputFile `yaml:"ceg_prices" env-prefix:"INPUT_CEG_"`
	Stock        InputFile `yaml:"stock" env-prefix:"INPUT_STOCK_"`
	Calendar     InputFile `yaml:"calendar" env-prefix:"INPUT_CALENDAR_"`
	Publications InputFile `yaml:"publications" env-prefix:"INPUT_PUBLICATIONS_"`
}

// OutputConfig holds output locations.
type OutputConfig struct {
	Dir string `yaml:"dir" env:"OUTPUT_DIR" env-default:"output"`
}

// CustomersConfig holds customer analysis knobs.
type CustomersConfig struct {
	TopN int `yaml:"top_n" env:"CUSTOMERS_TOP_N" env-default:"100"`
	// QuarterStartYear is the first year of the quarterly executive summary.
	QuarterStartYear int `yaml:"quarter_start_year" env:"CUSTOMERS_QUARTER_START_YEAR" env-default:"2024"`
}

// CalendarConfig holds commercial-calendar settings.
type CalendarConfig struct {
	BusinessUnit string `yaml:"business_unit" env:"CALENDAR_BUSINESS_UNIT" env-default:"TU"`
	// EventCategoriesPath points to a YAML event→category table.
	// Empty uses the built-in table.
	EventCategoriesPath string `yaml:"event_categories_path" env:"CALENDAR_EVENT_CATEGORIES_PATH" env-default:""`
	SuggestionsPerEvent int    `yaml:"suggestions_per_event" env:"CALENDAR_SUGGESTIONS_PER_EVENT" env-default:"20"`
}

// SinksConfig selects where report sheets are written.
type SinksConfig struct {
	XLSX     bool               `yaml:"xlsx" env:"SINK_XLSX" env-default:"true"`
	CSV      bool               `yaml:"csv" env:"SINK_CSV" env-default:"false"`
	SQLite   SQLiteConfig       `yaml:"sqlite"`
	Postgres PostgresSinkConfig `yaml:"postgres"`
}

// SQLiteConfig holds the SQLite sink settings.
type SQLiteConfig struct {
	Enabled bool   `yaml:"enabled" env:"SINK_SQLITE_ENABLED" env-default:"false"`
	Path    string `yaml:"path" env:"SINK_SQLITE_PATH" env-default:""`
}

// PostgresSinkConfig holds the Postgres sink and run registry settings.
type PostgresSinkConfig struct {
	Enabled        bool           `yaml:"enabled" env:"SINK_POSTGRES_ENABLED" env-default:"false"`
	MigrationsPath string         `yaml:"migrations_path" env:"SINK_POSTGRES_MIGRATIONS_PATH" env-default:"migrations"`
	Database       DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"salesintel"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"salesintel"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"5"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	return LoadFile("config.yaml", version)
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.parseComplexFields(time.Now()); err != nil {
		return nil, fmt.Errorf("failed to parse config fields: %w", err)
	}

	cfg.applyInputDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// parseComplexFields handles fields that need post-processing after loading.
func (c *Config) parseComplexFields(now time.Time) error {
	c.Reports = parseList(c.ReportsStr)

	if c.ReferenceDateStr == "" {
		c.ReferenceDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	}
	ref, ok := parse.Date(c.ReferenceDateStr, parse.DateISO)
	if !ok {
		return fmt.Errorf("reference_date %q is not YYYY-MM-DD", c.ReferenceDateStr)
	}
	c.ReferenceDate = ref
	return nil
}

// defaultInputs are the file names the report scripts historically used.
var defaultInputs = map[string]InputFile{
	"sales":        {Path: "ventas_tradeunity.csv", DateFormat: string(parse.DateISO)},
	"catalog":      {Path: "catalogo_tu.csv", DateFormat: string(parse.DateMDY)},
	"ceg_prices":   {Path: "productos_ceg.csv", DateFormat: string(parse.DateTextual)},
	"stock":        {Path: "stock_erp.csv", DateFormat: string(parse.DateISO)},
	"calendar":     {Path: "calendario_comercial.csv", DateFormat: string(parse.DateISO)},
	"publications": {Path: "publicaciones.csv", DateFormat: string(parse.DateISO)},
}

// applyInputDefaults fills unset paths and formats, and resolves relative
// paths against the input directory.
func (c *Config) applyInputDefaults() {
	for name, in := range c.Inputs.files() {
		def := defaultInputs[name]
		if in.Path == "" {
			in.Path = def.Path
		}
		if in.DateFormat == "" {
			in.DateFormat = def.DateFormat
		}
		if !filepath.IsAbs(in.Path) {
			in.Path = filepath.Join(c.Inputs.Dir, in.Path)
		}
	}
	if c.Sinks.SQLite.Enabled && c.Sinks.SQLite.Path == "" {
		c.Sinks.SQLite.Path = filepath.Join(c.Output.Dir, "reports.db")
	}
}

func (c *Config) validate() error {
	for name, in := range c.Inputs.files() {
		if _, err := parse.ParseDateFormat(in.DateFormat); err != nil {
			return fmt.Errorf("inputs.%s: %w", name, err)
		}
	}

	if len(c.Reports) == 0 {
		return fmt.Errorf("at least one report must be enabled")
	}
	for _, r := range c.Reports {
		if !isKnownReport(r) {
			return fmt.Errorf("%w: %q", apperrors.ErrUnknownReport, r)
		}
	}

	if !c.Sinks.XLSX && !c.Sinks.CSV && !c.Sinks.SQLite.Enabled && !c.Sinks.Postgres.Enabled {
		return fmt.Errorf("no output sink enabled")
	}
	if c.Sinks.Postgres.Enabled && c.Sinks.Postgres.Database.Host == "" {
		return fmt.Errorf("sinks.postgres.database.host is required when the postgres sink is enabled")
	}
	if c.Customers.TopN <= 0 {
		return fmt.Errorf("customers.top_n must be positive, got %d", c.Customers.TopN)
	}

	return nil
}

// files returns pointers to every input so defaults can be applied in place.
func (i *InputsConfig) files() map[string]*InputFile {
	return map[string]*InputFile{
		"sales":        &i.Sales,
		"catalog":      &i.Catalog,
		"ceg_prices":   &i.CEGPrices,
		"stock":        &i.Stock,
		"calendar":     &i.Calendar,
		"publications": &i.Publications,
	}
}

// Format returns the parsed date format family. It is only valid after Load.
func (f InputFile) Format() parse.DateFormat {
	df, err := parse.ParseDateFormat(f.DateFormat)
	if err != nil {
		return parse.DateISO
	}
	return df
}

// ReportEnabled reports whether the named report family is configured.
func (c *Config) ReportEnabled(name string) bool {
	for _, r := range c.Reports {
		if r == name {
			return true
		}
	}
	return false
}

func isKnownReport(name string) bool {
	for _, r := range AllReports {
		if r == name {
			return true
		}
	}
	return false
}

// parseList splits a comma-separated list, dropping blanks.
func parseList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ConnectionString returns a PostgreSQL connection URL.
func (c *DatabaseConfig) ConnectionString() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", ResolveHostForDocker(c.Host), c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}
