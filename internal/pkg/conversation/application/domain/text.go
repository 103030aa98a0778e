package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s, strips accents and surrounding punctuation and
// collapses whitespace: "¿Sí, Mañana?" becomes "si, manana".
func Fold(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	// transformers keep state; build one per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, lower)
	if err != nil {
		out = lower
	}
	out = strings.Join(strings.Fields(out), " ")
	return strings.Trim(out, "¡!¿?.,;: ")
}

func oneOf(text string, words ...string) bool {
	for _, w := range words {
		if text == w {
			return true
		}
	}
	return false
}

// IsAffirmative recognises confirmations.
func IsAffirmative(text string) bool {
	return oneOf(text, "si", "yes", "confirmar", "confirmo", "ok", "dale", "correcto", "s")
}

// IsNegative recognises refusals in a confirming step.
func IsNegative(text string) bool {
	return oneOf(text, "no", "n", "incorrecto", "nope")
}

// IsCancel recognises the reserved keyword that aborts any dialogue.
func IsCancel(text string) bool {
	return oneOf(text, "cancelar", "cancel", "salir")
}

func IsOptInAccept(text string) bool {
	return oneOf(text, "aceptar", "acepto", "si", "ok", "yes")
}

func IsOptInReject(text string) bool {
	return oneOf(text, "rechazar", "rechazo", "no")
}

func IsOptInDefer(text string) bool {
	return oneOf(text, "omitir", "despues", "luego", "saltar", "mas tarde")
}
