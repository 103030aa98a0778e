package domain

import "strings"

type intentRule struct {
	flow     FlowName
	keywords []string
}

// Priority order: loans, services, reschedules, then confirmations.
var intentRules = []intentRule{
	{flow: FlowNewLoan, keywords: []string{"prestamo", "prestar", "preste", "presto", "loan", "lend"}},
	{flow: FlowNewService, keywords: []string{"servicio", "cobro", "mensual", "recurrente", "suscripcion", "arriendo", "service", "subscription"}},
	{flow: FlowReschedule, keywords: []string{"reprogramar", "cambiar fecha", "cambiar la fecha", "posponer", "postergar", "reschedule"}},
	{flow: FlowConfirmReturn, keywords: []string{"devolvieron", "devolvio", "regresaron", "me entregaron", "devuelto", "returned"}},
	{flow: FlowConfirmPayment, keywords: []string{"pague", "pagado", "ya pago", "el pago", "transferi", "deposite", "paid"}},
}

// DetectIntent maps free text to a flow; first matching rule wins and
// anything else is a general inquiry.
func DetectIntent(input string) FlowName {
	text := Fold(input)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.flow
			}
		}
	}
	return FlowGeneralInquiry
}
