// Package submit drives a headless browser to fill and submit contact
// forms, capturing screenshot evidence and the resulting page state.
//
// A real browser is used instead of crafted POST requests because most
// contact forms depend on JavaScript: tokens computed on the client,
// AJAX submission handlers, and success banners rendered after the
// fact. Submitting over plain HTTP would both miss those forms and make
// the outcome unverifiable.
package submit
