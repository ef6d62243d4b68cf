// utils/format.go
package utils

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders a minor-unit (kobo) amount as a grouped naira string,
// e.g. 1234500 → "₦12,345.00". Used in notification payloads and admin views.
func FormatAmount(minor int64) string {
	return amountPrinter.Sprintf("₦%.2f", float64(minor)/100)
}
