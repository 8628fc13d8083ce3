package config

// SiteConfig holds per-domain overrides for a single target.
// This allows customizing crawl and submission behavior for sites that
// need it, such as sites behind a login cookie or with unusual contact
// page locations.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send when crawling this domain.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this domain.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MaxPages overrides the global dynamic page budget for this domain.
	// If zero, the global MaxPages is used.
	MaxPages int `yaml:"maxPages,omitempty"`

	// ContactPaths overrides the predefined contact paths seeded for
	// this domain. If empty, the built-in paths are used.
	ContactPaths []string `yaml:"contactPaths,omitempty"`

	// SkipSubmit disables form submission for this domain; forms are
	// still discovered and reported.
	SkipSubmit bool `yaml:"skipSubmit,omitempty"`
}

// File represents the structure of the .form-tester configuration file.
type File struct {
	// Sites maps domains to their per-domain overrides.
	// Keys should be the bare domain without a scheme (e.g., "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default overrides applied to all domains unless
	// overridden in the domain-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// SMTP holds the email fallback settings.
	SMTP SMTPConfig `yaml:"smtp,omitempty"`
}

// GetSiteConfig returns the configuration for a specific domain.
// It merges the domain-specific configuration with defaults.
func (cf *File) GetSiteConfig(domain string) SiteConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with domain-specific configuration if present
	if siteConfig, ok := cf.Sites[domain]; ok {
		if siteConfig.Cookie != "" {
			result.Cookie = siteConfig.Cookie
		}
		if siteConfig.MaxPages != 0 {
			result.MaxPages = siteConfig.MaxPages
		}
		if len(siteConfig.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}
			for k, v := range siteConfig.Headers {
				result.Headers[k] = v
			}
		}
		if len(siteConfig.ContactPaths) > 0 {
			result.ContactPaths = siteConfig.ContactPaths
		}
		if siteConfig.SkipSubmit {
			result.SkipSubmit = true
		}
	}

	return result
}
