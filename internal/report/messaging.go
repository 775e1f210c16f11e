package report

import (
	"fmt"
	"net/url"
	"strings"

	"tutorbook/internal/core"
)

const whatsAppBase = "https://wa.me/"

// InvoiceMessage is the text pre-filled in the messaging link.
func InvoiceMessage(studentName string) string {
	return fmt.Sprintf("Invoice for %s has been generated.", studentName)
}

// WhatsAppLink builds the deep link for contact. A missing contact is an
// EmptyResultError.
func WhatsAppLink(contact core.PaymentRecord, studentName string) (string, error) {
	if !contact.HasContact() {
		return "", core.NewEmptyResultError(fmt.Sprintf("contact number for %q", studentName))
	}
	phone := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, contact.ContactNumber)
	if phone == "" {
		return "", core.NewValidationError("contactNumber", fmt.Errorf("no digits in %q", contact.ContactNumber))
	}
	return whatsAppBase + phone + "?text=" + encodeText(InvoiceMessage(studentName)), nil
}

// encodeText query-escapes s with spaces as %20; a literal '+' stays %2B.
func encodeText(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
