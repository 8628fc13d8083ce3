// Package config provides configuration structures and utilities for the
// form tester. It defines the main options for crawling domains, testing
// contact forms, email fallback delivery, and report generation.
package config
