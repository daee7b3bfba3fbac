package receipt

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/prn-tf/kvitok/internal/domain"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func sampleTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	return &domain.Ticket{
		ID:            1,
		UserID:        1,
		CreatedAt:     time.Date(2024, time.January, 2, 15, 4, 0, 0, time.UTC),
		PaymentType:   domain.PaymentTypeCash,
		PaymentAmount: dec(t, "250.00"),
		Total:         dec(t, "250.00"),
		User:          &domain.User{ID: 1, Name: "Тарас", Nickname: "taras"},
		Products: []*domain.TicketProduct{
			{ID: 1, TicketID: 1, Name: "test1", Price: dec(t, "50.00"), Quantity: dec(t, "3.00")},
			{ID: 2, TicketID: 1, Name: "test2", Price: dec(t, "50.00"), Quantity: dec(t, "2.00")},
		},
	}
}

func TestFormat_Layout(t *testing.T) {
	const width = 30

	got := string(Format(sampleTicket(t), width))

	sep := strings.Repeat("=", width)
	expected := strings.Join([]string{
		strings.Repeat(" ", 10) + "ФОП Тарас" + strings.Repeat(" ", 11),
		sep,
		"3.00 x 50.00" + strings.Repeat(" ", 18),
		"test1" + strings.Repeat(" ", 19) + "150.00",
		strings.Repeat("-", width),
		"2.00 x 50.00" + strings.Repeat(" ", 18),
		"test2" + strings.Repeat(" ", 19) + "100.00",
		sep,
		"СУМА:" + strings.Repeat(" ", 19) + "250.00",
		"Готівка:" + strings.Repeat(" ", 16) + "250.00",
		"Решта:" + strings.Repeat(" ", 20) + "0.00",
		sep,
		strings.Repeat(" ", 7) + "02.01.2024 15:04" + strings.Repeat(" ", 7),
		strings.Repeat(" ", 5) + "Дякуємо за покупку!" + strings.Repeat(" ", 6),
		"",
	}, "\n")

	if got != expected {
		t.Errorf("unexpected layout:\ngot:\n%s\nwant:\n%s", got, expected)
	}
}

func TestFormat_AllLinesFullWidth(t *testing.T) {
	const width = 40

	out := string(Format(sampleTicket(t), width))
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	for i, line := range lines {
		if n := utf8.RuneCountInString(line); n != width {
			t.Errorf("line %d is %d runes wide, want %d: %q", i, n, width, line)
		}
	}
}

func TestFormat_Deterministic(t *testing.T) {
	ticket := sampleTicket(t)

	first := Format(ticket, 32)
	second := Format(ticket, 32)

	if !bytes.Equal(first, second) {
		t.Error("formatting the same ticket twice must be byte-identical")
	}
}

func TestFormat_NarrowWidthDoesNotPanic(t *testing.T) {
	// Right-aligned values wider than the line must clamp padding to zero
	// and overflow instead of crashing.
	ticket := sampleTicket(t)

	out := string(Format(ticket, 3))

	if !strings.Contains(out, "СУМА:250.00") {
		t.Errorf("expected overflowing summary row, got:\n%s", out)
	}
	if !strings.Contains(out, "test1150.00") {
		t.Errorf("expected overflowing product row, got:\n%s", out)
	}
}

func TestFormat_NegativeWidthBehavesLikeZero(t *testing.T) {
	ticket := sampleTicket(t)

	got := Format(ticket, -1)

	if want := Format(ticket, 0); !bytes.Equal(got, want) {
		t.Errorf("negative width output differs from zero width:\ngot:\n%s\nwant:\n%s", got, want)
	}
	if strings.Contains(string(got), "=") {
		t.Error("separators must render empty at non-positive widths")
	}
}

func TestFormat_UnknownPaymentType(t *testing.T) {
	ticket := sampleTicket(t)
	ticket.PaymentType = domain.PaymentType("cheque")

	out := string(Format(ticket, 20))

	// The label resolves to an empty string; the row keeps its colon and
	// right-aligned amount.
	if !strings.Contains(out, ":"+strings.Repeat(" ", 13)+"250.00") {
		t.Errorf("expected empty payment label row, got:\n%s", out)
	}
}

func TestFormat_SingleProductHasNoInnerSeparator(t *testing.T) {
	ticket := sampleTicket(t)
	ticket.Products = ticket.Products[:1]

	out := string(Format(ticket, 25))

	if strings.Contains(out, strings.Repeat("-", 25)) {
		t.Error("single-product receipts must not contain a product separator")
	}
}
