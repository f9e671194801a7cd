package markers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpret_ItemLines(t *testing.T) {
	d := Interpret("ITEM: Corte de cabelo (14h) | VALOR: R$ 50,00\n[PEDIDO_FINALIZADO]")

	require.Equal(t, ItemLines, d.Kind)
	require.Len(t, d.Items, 1)
	assert.Equal(t, "Corte de cabelo (14h)", d.Items[0].Name)
	assert.InDelta(t, 50.00, d.Items[0].Amount, 0.001)
}

func TestInterpret_MultipleItems(t *testing.T) {
	reply := "Perfeito!\nITEM: Corte (14h) | VALOR: R$ 50\nitem: Barba (15h) | valor: R$ 35.90\n[pedido_finalizado]"
	d := Interpret(reply)

	require.Equal(t, ItemLines, d.Kind)
	require.Len(t, d.Items, 2)
	assert.Equal(t, "Barba (15h)", d.Items[1].Name)
	assert.InDelta(t, 35.90, d.Items[1].Amount, 0.001)
}

func TestInterpret_TotalOnly(t *testing.T) {
	d := Interpret("Resumo: 1x Burger. TOTAL: R$ 32,50\n[PEDIDO_FINALIZADO]")

	assert.Equal(t, TotalOnly, d.Kind)
	assert.InDelta(t, 32.50, d.Total, 0.001)
}

func TestInterpret_TotalMissingDefaultsToZero(t *testing.T) {
	d := Interpret("Pedido anotado! [PEDIDO_FINALIZADO]")

	assert.Equal(t, TotalOnly, d.Kind)
	assert.Zero(t, d.Total)
}

func TestInterpret_CancelAll(t *testing.T) {
	d := Interpret("Tudo bem, cancelei seu pedido. [PEDIDO_CANCELADO]")
	assert.Equal(t, CancelAll, d.Kind)
}

func TestInterpret_CancelNamed(t *testing.T) {
	d := Interpret("Cancelado!\nCANCELAR_ITEM: Corte de cabelo [PEDIDO_CANCELADO]")

	require.Equal(t, CancelNamed, d.Kind)
	assert.Equal(t, "Corte de cabelo", d.Target)
}

func TestInterpret_CancelWinsOverCompletion(t *testing.T) {
	d := Interpret("ITEM: Corte | VALOR: R$ 50,00\n[PEDIDO_FINALIZADO]\n[PEDIDO_CANCELADO]")
	assert.Equal(t, CancelAll, d.Kind)
}

func TestInterpret_NoMarkers(t *testing.T) {
	d := Interpret("Olá! Como posso ajudar? TOTAL: R$ 10,00")
	assert.Equal(t, None, d.Kind)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"50", 50},
		{"50,00", 50},
		{"32,50", 32.5},
		{"32.50", 32.5},
		{"1.250,00", 1250},
		{"1.250", 1250},
		{"abc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseAmount(tt.raw), 0.001)
		})
	}
}

func TestClean(t *testing.T) {
	reply := "Seu horário está confirmado!\n\nITEM: Corte (14h) | VALOR: R$ 50,00\n[PEDIDO_FINALIZADO]"
	assert.Equal(t, "Seu horário está confirmado!", Clean(reply))

	assert.Equal(t, "Resumo: 1x Burger. TOTAL: R$ 32,50",
		Clean("Resumo: 1x Burger. TOTAL: R$ 32,50\n[PEDIDO_FINALIZADO]"))

	assert.Equal(t, "Ok", Clean("Ok\nCANCELAR_ITEM: Pizza\n[pedido_cancelado]"))
}

func TestSegment_Paragraphs(t *testing.T) {
	got := Segment("Olá!\nTudo bem?\n\nTemos horário às 14h.\n\n.")
	assert.Equal(t, []string{"Olá!\nTudo bem?", "Temos horário às 14h."}, got)
}

func TestSegment_FallsBackToLines(t *testing.T) {
	got := Segment("Primeira linha\nSegunda linha\n \nx")
	assert.Equal(t, []string{"Primeira linha", "Segunda linha"}, got)
}

func TestSegment_TrivialParagraphsDoNotBlockLineSplit(t *testing.T) {
	got := Segment("Perfeito, Ana!\nPagamento via PIX.\n\n .")
	assert.Equal(t, []string{"Perfeito, Ana!", "Pagamento via PIX."}, got)
}

func TestSegment_Empty(t *testing.T) {
	assert.Empty(t, Segment(""))
	assert.Empty(t, Segment("   "))
}
