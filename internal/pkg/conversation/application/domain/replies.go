package domain

import (
	"fmt"
	"strings"

	agreement "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/domain"
)

// User-facing texts. Prompts take the context so they can echo earlier
// answers back.

const (
	ReplyCancelled     = "Listo, cancelé la operación. Escribe *ayuda* para ver lo que puedo hacer."
	ReplyNothingActive = "No tienes ninguna operación en curso."
	ReplyFailure       = "Tuve un problema procesando tu mensaje. Por favor intenta de nuevo en unos minutos."
	ReplyHelp          = "Puedo ayudarte a registrar préstamos y cobros.\n" +
		"• *nuevo préstamo* para registrar algo que prestaste\n" +
		"• *nuevo servicio* para un cobro recurrente\n" +
		"• *reprogramar* para cambiar una fecha\n" +
		"• *me devolvieron* o *ya pagó* para cerrar un préstamo\n" +
		"• *estado* para ver tus préstamos\n" +
		"Escribe *cancelar* en cualquier momento para salir."
)

func askContact(Context) string {
	return "¿A quién le prestaste? Escribe su nombre (y su teléfono si es un contacto nuevo, ej: Juan +56912345678)."
}

func retryContact(Context) string {
	return "Necesito un nombre de al menos 2 letras o un número de teléfono válido."
}

func askItem(c Context) string {
	return fmt.Sprintf("¿Qué le prestaste a %s? Escribe un monto (ej: $10.000) o describe el objeto.", c.CounterpartyName())
}

func retryItem(Context) string {
	return "No entendí qué prestaste. Escribe un monto como $10.000 o una descripción de al menos 3 letras."
}

func askDueDate(c Context) string {
	return fmt.Sprintf("¿Para cuándo debe devolver %s? Puedes escribir *mañana*, *en una semana*, *fin de mes* o una fecha (dd/mm/aaaa).", c.Loan.Subject())
}

func retryDate(Context) string {
	return "No pude entender la fecha o ya pasó. Prueba con *mañana*, *en una semana*, *fin de mes* o una fecha futura como 15/03/2026."
}

func askLoanConfirmation(c Context) string {
	l := c.Loan
	due := ""
	if l.DueDate != nil {
		due = l.DueDate.Display()
	}
	return fmt.Sprintf("Préstamo a %s: %s, con devolución el %s. ¿Confirmas? (sí/no)", c.CounterpartyName(), l.Subject(), due)
}

func retryConfirmation(Context) string {
	return "Responde *sí* para confirmar o *no* para descartar."
}

func askServiceContact(Context) string {
	return "¿A quién le cobras el servicio? Escribe su nombre (y su teléfono si es un contacto nuevo)."
}

func askServiceDetails(c Context) string {
	return fmt.Sprintf("¿Qué servicio le cobras a %s? Puedes incluir el monto, ej: clases de piano $20.000.", c.CounterpartyName())
}

func retryServiceDetails(Context) string {
	return "Describe el servicio con al menos 3 letras, opcionalmente con un monto ($20.000)."
}

func askRecurrence(Context) string {
	return "¿Cada cuánto se cobra? *diario*, *semanal*, *quincenal* o *mensual*."
}

func retryRecurrence(Context) string {
	return "Elige una frecuencia: diario, semanal, quincenal o mensual."
}

func askServiceConfirmation(c Context) string {
	s := c.Service
	amount := ""
	if s.Amount != nil {
		amount = " por " + agreement.FormatMoney(*s.Amount, s.Currency)
	}
	return fmt.Sprintf("Servicio %s a %s: %s%s. ¿Confirmas? (sí/no)", s.Recurrence.Label(), c.CounterpartyName(), s.Description, amount)
}

func askRescheduleDate(c Context) string {
	return fmt.Sprintf("¿Para cuándo movemos \"%s\"%s?\n1) mañana\n2) en 3 días\no escribe una fecha.", c.Target.Title, dueSuffix(c.Target.DueDate))
}

func askRescheduleConfirmation(c Context) string {
	return fmt.Sprintf("Voy a mover \"%s\" al %s. ¿Confirmas? (sí/no)", c.Target.Title, c.Target.NewDate.Display())
}

func askReturnConfirmation(c Context) string {
	return fmt.Sprintf("¿Confirmas que \"%s\"%s fue devuelto? (sí/no)", c.Target.Title, dueSuffix(c.Target.DueDate))
}

func askPaymentConfirmation(c Context) string {
	return fmt.Sprintf("¿Confirmas el pago de \"%s\"%s? (sí/no)", c.Target.Title, dueSuffix(c.Target.DueDate))
}

func dueSuffix(d *Date) string {
	if d == nil {
		return ""
	}
	return " (vence el " + d.Display() + ")"
}

// NoTargetNotice explains why a follow-up flow ended immediately.
func NoTargetNotice(flow FlowName) string {
	switch flow {
	case FlowReschedule:
		return "No encontré préstamos activos para reprogramar."
	case FlowConfirmReturn:
		return "No encontré préstamos pendientes de devolución."
	case FlowConfirmPayment:
		return "No encontré cobros pendientes de pago."
	}
	return ReplyNothingActive
}

// CompletionReply summarizes what the finalizer recorded.
func CompletionReply(c Context, pendingConsent bool) string {
	var b strings.Builder
	switch c.Flow {
	case FlowNewLoan:
		fmt.Fprintf(&b, "✅ Registré el préstamo a %s: %s.", c.CounterpartyName(), c.Loan.Subject())
		if c.Loan.DueDate != nil {
			fmt.Fprintf(&b, " Te recordaré el %s.", c.Loan.DueDate.Display())
		}
	case FlowNewService:
		fmt.Fprintf(&b, "✅ Registré el servicio %s a %s: %s.", c.Service.Recurrence.Label(), c.CounterpartyName(), c.Service.Description)
	case FlowReschedule:
		fmt.Fprintf(&b, "✅ \"%s\" ahora vence el %s.", c.Target.Title, c.Target.NewDate.Display())
	case FlowConfirmReturn:
		fmt.Fprintf(&b, "✅ Marqué \"%s\" como devuelto.", c.Target.Title)
	case FlowConfirmPayment:
		fmt.Fprintf(&b, "✅ Registré el pago de \"%s\".", c.Target.Title)
	default:
		return ReplyHelp
	}
	if pendingConsent {
		fmt.Fprintf(&b, " Quedará pendiente hasta que %s acepte recibir recordatorios.", c.CounterpartyName())
	}
	return b.String()
}

// OptInPrompt asks the initiator to resolve the counterparty's consent.
func OptInPrompt(c Context) string {
	name := c.CounterpartyName()
	if name == "" {
		name = "tu contacto"
	}
	sent := " Le envié una solicitud."
	if c.OptIn == nil || !c.OptIn.Requested {
		sent = " No tengo cómo escribirle, así que no le envié una solicitud."
	}
	return fmt.Sprintf("%s todavía no acepta recibir recordatorios.%s\n"+
		"Responde *aceptar* si ya lo autorizó, *omitir* para continuar sin su confirmación o *rechazar* para cancelar.", name, sent)
}

func OptInRetry(Context) string {
	return "Responde *aceptar*, *omitir* o *rechazar*."
}

// OptInRejectedNotice ends a flow whose counterparty declined.
func OptInRejectedNotice(c Context) string {
	name := c.CounterpartyName()
	if name == "" {
		name = "Tu contacto"
	}
	return fmt.Sprintf("%s no aceptó recibir recordatorios, así que cancelé la operación.", name)
}
