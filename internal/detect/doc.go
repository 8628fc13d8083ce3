// Package detect flags anti-bot measures on contact forms: CAPTCHA
// challenges in page markup and honeypot (spam-trap) fields inside a
// form's controls.
package detect
