// Package crawler discovers contact surfaces on a target domain. It
// combines a rate-limited HTTP fetcher, an HTML link and form extractor,
// and a bounded-frontier orchestrator that prioritizes contact-like
// pages while enforcing a per-domain page budget.
package crawler
