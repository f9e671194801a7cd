// Package markers interprets the structural markers a generated reply may
// carry and strips them before the text is delivered to the customer.
//
// Marker vocabulary:
//
//	[PEDIDO_FINALIZADO]                 order confirmed
//	[PEDIDO_CANCELADO]                  order cancelled
//	ITEM: <name> | VALOR: R$ <amount>   one line per booked item
//	TOTAL: R$ <amount>                  single total when no item lines
//	CANCELAR_ITEM: <text>               cancel only the matching order
package markers

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	Completed = "[PEDIDO_FINALIZADO]"
	Cancelled = "[PEDIDO_CANCELADO]"
)

// Kind tags a Directive.
type Kind int

const (
	None Kind = iota
	ItemLines
	TotalOnly
	CancelAll
	CancelNamed
)

func (k Kind) String() string {
	switch k {
	case ItemLines:
		return "item_lines"
	case TotalOnly:
		return "total_only"
	case CancelAll:
		return "cancel_all"
	case CancelNamed:
		return "cancel_named"
	default:
		return "none"
	}
}

// Item is one booked line.
type Item struct {
	Name   string
	Amount float64
}

// Directive is the order effect requested by a reply.
type Directive struct {
	Kind Kind
	// ItemLines
	Items []Item
	// TotalOnly
	Total float64
	// CancelNamed
	Target string
}

const amountPattern = `(\d{1,3}(?:\.\d{3})+(?:,\d{2})?|\d+(?:[.,]\d{2})?)`

var (
	itemRe       = regexp.MustCompile(`(?i)ITEM:\s*(.*?)\s*\|\s*VALOR:\s*R\$\s*` + amountPattern)
	totalRe      = regexp.MustCompile(`(?i)TOTAL:\s*R\$\s*` + amountPattern)
	cancelItemRe = regexp.MustCompile(`(?i)CANCELAR_ITEM:\s*(.*)`)
	cleanRe      = regexp.MustCompile(`(?i)\[PEDIDO_FINALIZADO\]|\[PEDIDO_CANCELADO\]|CANCELAR_ITEM:.*|ITEM:.*`)
	thousandsRe  = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
)

// Interpret reads the directive carried by reply. Cancellation wins over
// completion when both markers are present.
func Interpret(reply string) Directive {
	upper := strings.ToUpper(reply)

	if strings.Contains(upper, Cancelled) {
		if m := cancelItemRe.FindStringSubmatch(reply); m != nil {
			if target := strings.TrimSpace(cleanRe.ReplaceAllString(m[1], "")); target != "" {
				return Directive{Kind: CancelNamed, Target: target}
			}
		}
		return Directive{Kind: CancelAll}
	}

	if !strings.Contains(upper, Completed) {
		return Directive{Kind: None}
	}

	var items []Item
	for _, m := range itemRe.FindAllStringSubmatch(reply, -1) {
		items = append(items, Item{
			Name:   strings.TrimSpace(m[1]),
			Amount: ParseAmount(m[2]),
		})
	}
	if len(items) > 0 {
		return Directive{Kind: ItemLines, Items: items}
	}

	var total float64
	if m := totalRe.FindStringSubmatch(reply); m != nil {
		total = ParseAmount(m[1])
	}
	return Directive{Kind: TotalOnly, Total: total}
}

// Clean removes every structural marker from reply.
func Clean(reply string) string {
	reply = strings.ReplaceAll(reply, "\r\n", "\n")
	return strings.TrimSpace(cleanRe.ReplaceAllString(reply, ""))
}

// Segment splits cleaned text into the messages to deliver: paragraphs, or
// lines when only one meaningful paragraph remains. Segments of one
// character or less are dropped before that check.
func Segment(cleaned string) []string {
	cleaned = strings.ReplaceAll(cleaned, "\r\n", "\n")

	segments := meaningful(strings.Split(cleaned, "\n\n"))
	if len(segments) == 1 {
		segments = meaningful(strings.Split(cleaned, "\n"))
	}
	return segments
}

func meaningful(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if utf8.RuneCountInString(p) > 1 {
			out = append(out, p)
		}
	}
	return out
}

// ParseAmount converts a Brazilian-formatted amount ("32,50", "1.250,00",
// "32.50") to a float. Unparseable input yields 0.
func ParseAmount(raw string) float64 {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.Contains(raw, ","):
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	case thousandsRe.MatchString(raw):
		raw = strings.ReplaceAll(raw, ".", "")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}
