// Package main provides the entry point for the form-tester CLI.
//
// form-tester discovers contact forms on a list of domains, fills and
// submits them through a real browser, and falls back to direct email
// when no usable form is found.
//
// Usage:
//
//	form-tester process example.com
//	form-tester process --domains domains.csv
//
// See --help for all available options.
package main

// main is the entry point for form-tester.
func main() {
	Execute()
}
