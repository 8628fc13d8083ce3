package config

import (
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values mirror the behavior of unattended batch runs against
// ordinary small-business websites, where politeness matters more than
// throughput.
const (
	// DefaultTimeout is the per-request timeout. Contact pages on shared
	// hosting can be slow, but anything beyond 30 seconds usually means
	// the site is down rather than busy.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxPages is the maximum number of link-discovered pages
	// crawled per domain. Contact forms almost always sit within a few
	// clicks of the front page, so a small budget finds them while
	// keeping batch runs bounded. Predefined contact paths do not count
	// against this budget.
	DefaultMaxPages = 10

	// DefaultBatchSize is the number of domains processed concurrently.
	// Each domain is rate-limited independently, so concurrency across
	// domains does not increase pressure on any single host.
	DefaultBatchSize = 5

	// DefaultRetries is how many times a failing request is attempted
	// before the page is skipped. Transient DNS and connection resets
	// usually resolve within a retry or two.
	DefaultRetries = 3

	// DefaultDelay is the minimum interval between two requests to the
	// same host. 1 second is conservative and respectful of server
	// resources. Can be adjusted via the --delay CLI flag.
	DefaultDelay = 1 * time.Second

	// DefaultUserAgent identifies the tool in HTTP requests. A
	// descriptive User-Agent lets site operators identify the traffic
	// in their logs.
	DefaultUserAgent = "FormTesterBot/1.0 (Contact Form Testing Tool)"

	// DefaultMaxBodySize limits the response body size read per page.
	// 5MB is sufficient for any real HTML page while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultSMTPPort is the submission port with STARTTLS.
	DefaultSMTPPort = 587

	// AppName is the application name used for XDG directory paths.
	AppName = "form-tester"
)

// scheduleFormat validates --schedule values (24h HH:MM).
var scheduleFormat = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// SMTPConfig holds the credentials and sender identity for the email
// fallback. Credentials come from the config file or from the
// FORM_TESTER_SMTP_USER / FORM_TESTER_SMTP_PASSWORD / FORM_TESTER_FROM_EMAIL
// environment variables; the environment wins so secrets can stay out of
// files.
type SMTPConfig struct {
	// Host is the SMTP server hostname.
	Host string `yaml:"host,omitempty"`

	// Port is the SMTP server port. Zero means DefaultSMTPPort.
	Port int `yaml:"port,omitempty"`

	// User is the SMTP authentication user name.
	User string `yaml:"user,omitempty"`

	// Password is the SMTP authentication password. Never logged.
	Password string `yaml:"password,omitempty"`

	// FromEmail is the envelope and header sender address.
	FromEmail string `yaml:"fromEmail,omitempty"`
}

// Configured reports whether enough SMTP settings are present to
// attempt email delivery.
func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.FromEmail != ""
}

// Config holds all configuration options for a form-tester run.
// This struct is designed to be populated from CLI flags and passed
// through the application via dependency injection rather than global
// state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, SubmitConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit. SMTP settings are the one exception because they load as a
// unit from the config file.
type Config struct {
	// DomainsFile is the CSV file listing target domains, one per row
	// with an optional contact email in the second column.
	DomainsFile string

	// Domain, when set, restricts the run to this single domain and
	// ignores DomainsFile.
	Domain string

	// OutputFile is the CSV file the per-action result log is written to.
	OutputFile string

	// MarkdownFile, when set, additionally writes a Markdown run summary.
	MarkdownFile string

	// JSONFile, when set, additionally writes the full run summary as JSON.
	JSONFile string

	// EvidenceDir is where submission screenshots are stored.
	// When empty, no evidence is captured.
	EvidenceDir string

	// Schedule is an optional 24h "HH:MM" start time. The run sleeps
	// until the next occurrence before processing begins.
	Schedule string

	// BatchSize is the number of domains processed concurrently.
	BatchSize int

	// Timeout is the per-request timeout for crawling and submission.
	Timeout time.Duration

	// Delay is the minimum interval between requests to one host.
	Delay time.Duration

	// MaxPages is the per-domain dynamic page budget.
	MaxPages int

	// Retries is the per-request attempt count.
	Retries int

	// CheckRobots gates crawling on each host's robots.txt.
	CheckRobots bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// DBDir is the directory for the SQLite results database. Results
	// and the suppression list are always persisted; this only controls
	// where. Defaults to the XDG data directory.
	DBDir string

	// ConfigFilePath is the path to the configuration file. If empty,
	// the tool searches for .form-tester in the current directory and
	// then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-domain overrides loaded from the config file.
	SiteConfigs *File

	// SMTP configures the email fallback. Unconfigured SMTP disables
	// the fallback; form testing still runs.
	SMTP SMTPConfig
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, retry
// count). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		DomainsFile: "domains.csv",
		OutputFile:  "results.csv",
		BatchSize:   DefaultBatchSize,
		Timeout:     DefaultTimeout,
		Delay:       DefaultDelay,
		MaxPages:    DefaultMaxPages,
		Retries:     DefaultRetries,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		SMTP:        SMTPConfig{Port: DefaultSMTPPort},
	}
}

// ApplySMTPEnv overlays SMTP credentials from the environment. Set
// variables win over file values so secrets can be injected at run time.
func (c *Config) ApplySMTPEnv() {
	if v := os.Getenv("FORM_TESTER_SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("FORM_TESTER_SMTP_USER"); v != "" {
		c.SMTP.User = v
	}
	if v := os.Getenv("FORM_TESTER_SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("FORM_TESTER_FROM_EMAIL"); v != "" {
		c.SMTP.FromEmail = v
	}
}

// XDGDataDir returns the XDG data directory for the form tester.
// On Linux: ~/.local/share/form-tester
// On macOS: ~/Library/Application Support/form-tester
// On Windows: %LOCALAPPDATA%\form-tester
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for the form tester.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any processing begins.
//
// We chose to return the first error found rather than collecting all
// errors because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.Domain == "" && c.DomainsFile == "" {
		return ErrNoTarget
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.Delay < 0 {
		return ErrInvalidDelay
	}

	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	if c.Retries <= 0 {
		return ErrInvalidRetries
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.Schedule != "" && !scheduleFormat.MatchString(c.Schedule) {
		return ErrInvalidSchedule
	}

	return nil
}
