// Package receipt renders plain-text receipts for tickets.
// Formatting is pure and deterministic: the same ticket and width always
// produce byte-identical output, which lets generated receipts be cached
// in the object store indefinitely.
package receipt

import (
	"strings"
	"unicode/utf8"

	"github.com/prn-tf/kvitok/internal/domain"
)

// timestampLayout is the receipt footer timestamp format, DD.MM.YYYY HH:MM.
const timestampLayout = "02.01.2006 15:04"

// thankYouMessage is the receipt footer line.
const thankYouMessage = "Дякуємо за покупку!"

// Format renders the ticket as fixed-width UTF-8 text. Every line is padded
// to maxSymbols characters; content wider than maxSymbols overflows the
// line rather than being truncated or wrapped. The ticket must have its
// owner and products populated. Negative widths behave like zero.
func Format(t *domain.Ticket, maxSymbols int) []byte {
	if maxSymbols < 0 {
		maxSymbols = 0
	}

	var b strings.Builder

	separator := strings.Repeat("=", maxSymbols)
	productSeparator := strings.Repeat("-", maxSymbols)

	writeLine(&b, center("ФОП "+t.User.Name, maxSymbols))
	writeLine(&b, separator)

	for i, product := range t.Products {
		calculation := product.Quantity.StringFixed(2) + " x " + product.Price.StringFixed(2)
		writeLine(&b, row(calculation, "", maxSymbols))
		writeLine(&b, row(product.Name, product.LineTotal().StringFixed(2), maxSymbols))
		if i != len(t.Products)-1 {
			writeLine(&b, productSeparator)
		}
	}

	writeLine(&b, separator)
	writeLine(&b, row("СУМА:", t.Total.StringFixed(2), maxSymbols))
	writeLine(&b, row(t.PaymentType.DisplayName()+":", t.PaymentAmount.StringFixed(2), maxSymbols))
	writeLine(&b, row("Решта:", t.Rest().StringFixed(2), maxSymbols))
	writeLine(&b, separator)

	writeLine(&b, center(t.CreatedAt.Format(timestampLayout), maxSymbols))
	writeLine(&b, center(thankYouMessage, maxSymbols))

	return []byte(b.String())
}

func writeLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteByte('\n')
}

// row lays out left-aligned text with an optional right-aligned value.
// The left part is padded with spaces up to maxSymbols minus the width of
// the right part. Widths are counted in runes so Cyrillic labels line up.
// Pad widths clamp at zero, so oversized content overflows instead of
// crashing.
func row(left, right string, maxSymbols int) string {
	leftWidth := maxSymbols - utf8.RuneCountInString(right)
	if leftWidth < 0 {
		leftWidth = 0
	}

	pad := leftWidth - utf8.RuneCountInString(left)
	if pad < 0 {
		pad = 0
	}

	return left + strings.Repeat(" ", pad) + right
}

// center pads text on both sides to maxSymbols runes, biasing the extra
// space to the right when the remainder is odd.
func center(text string, maxSymbols int) string {
	space := maxSymbols - utf8.RuneCountInString(text)
	if space < 0 {
		space = 0
	}

	leftPad := space / 2
	rightPad := space - leftPad

	return strings.Repeat(" ", leftPad) + text + strings.Repeat(" ", rightPad)
}
