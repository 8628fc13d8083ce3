package model

// ReasonCode is a machine-readable code explaining why an action was
// taken or skipped. Codes are stable; descriptions are display-only.
type ReasonCode string

// Known reason codes.
const (
	ReasonFormSubmitted    ReasonCode = "FORM_SUBMITTED_SUCCESS"
	ReasonFormRejected     ReasonCode = "FORM_SUBMIT_REJECTED"
	ReasonHasReCAPTCHA     ReasonCode = "HAS_RECAPTCHA"
	ReasonHasHCaptcha      ReasonCode = "HAS_HCAPTCHA"
	ReasonHasCaptcha       ReasonCode = "HAS_CAPTCHA"
	ReasonNoFormFound      ReasonCode = "NO_FORM_FOUND"
	ReasonEmailSent        ReasonCode = "EMAIL_SENT"
	ReasonHardBounce       ReasonCode = "HARD_BOUNCE"
	ReasonFormFillError    ReasonCode = "FORM_FILL_ERROR"
	ReasonHoneypotDetected ReasonCode = "HONEYPOT_DETECTED"
	ReasonNetworkError     ReasonCode = "NETWORK_ERROR"
	ReasonTimeout          ReasonCode = "TIMEOUT_ERROR"
	ReasonSMTPError        ReasonCode = "SMTP_ERROR"
	ReasonSuppressed       ReasonCode = "SUPPRESSED"
	ReasonUnknownError     ReasonCode = "UNKNOWN_ERROR"
)

// reasonDescriptions maps codes to human-readable descriptions.
// Kept in Spanish to match the original tool's result files.
var reasonDescriptions = map[ReasonCode]string{
	ReasonFormSubmitted:    "Formulario enviado exitosamente",
	ReasonFormRejected:     "El sitio rechazó o no confirmó el envío del formulario",
	ReasonHasReCAPTCHA:     "reCAPTCHA detectado, envío omitido",
	ReasonHasHCaptcha:      "hCAPTCHA detectado, envío omitido",
	ReasonHasCaptcha:       "CAPTCHA detectado, envío omitido",
	ReasonNoFormFound:      "No se encontró formulario de contacto",
	ReasonEmailSent:        "Email enviado vía SMTP como fallback",
	ReasonHardBounce:       "Bounce permanente detectado, agregado a suppression list",
	ReasonFormFillError:    "Error al completar campos del formulario",
	ReasonHoneypotDetected: "Honeypot detectado, envío omitido",
	ReasonNetworkError:     "Error de red al acceder al sitio",
	ReasonTimeout:          "Timeout en la solicitud",
	ReasonSMTPError:        "Error al enviar email vía SMTP",
	ReasonSuppressed:       "Email en la lista de supresión, envío omitido",
	ReasonUnknownError:     "Error desconocido",
}

// ReasonCodes returns all known codes in a stable display order.
func ReasonCodes() []ReasonCode {
	return []ReasonCode{
		ReasonFormSubmitted,
		ReasonFormRejected,
		ReasonHasReCAPTCHA,
		ReasonHasHCaptcha,
		ReasonHasCaptcha,
		ReasonNoFormFound,
		ReasonEmailSent,
		ReasonHardBounce,
		ReasonFormFillError,
		ReasonHoneypotDetected,
		ReasonNetworkError,
		ReasonTimeout,
		ReasonSMTPError,
		ReasonSuppressed,
		ReasonUnknownError,
	}
}

// Description returns the human-readable description for the code.
// Unknown codes return the code itself so nothing is silently lost.
func (c ReasonCode) Description() string {
	if desc, ok := reasonDescriptions[c]; ok {
		return desc
	}
	return string(c)
}
