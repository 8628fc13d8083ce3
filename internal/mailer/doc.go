// Package mailer sends the fallback contact email over SMTP when a
// domain yields no usable contact form.
//
// Delivery failures are split into two classes: permanent rejections of
// the recipient (hard bounces), which must put the address on the
// suppression list, and everything else, which is retryable. The split
// is done on the SMTP status code of the RCPT command because that is
// the only point where the server speaks about the recipient itself.
package mailer
