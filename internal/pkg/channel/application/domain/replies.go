package domain

import "fmt"

func Greeting(name string) string {
	if name == "" {
		name = "👋"
	}
	return fmt.Sprintf("¡Hola %s! Escribe *nuevo préstamo* para registrar uno, *estado* para ver tus préstamos o *ayuda* para más opciones.", name)
}

const (
	ReplyOptInAccepted     = "¡Gracias! Te avisaremos antes de cada vencimiento."
	ReplyOptInRejected     = "Entendido, no te enviaremos recordatorios."
	ReplyAgreementAccepted = "✅ Confirmaste el préstamo. Te recordaremos antes del vencimiento."
	ReplyAgreementRejected = "Listo, avisamos que no reconoces este préstamo."
	ReplyNothingPending    = "No tienes préstamos pendientes de confirmar."
)
