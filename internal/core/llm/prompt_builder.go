package llm

import (
	"fmt"
	"strings"
)

// HistoryLine is one prior turn rendered into the prompt.
type HistoryLine struct {
	FromCustomer bool
	Text         string
}

// PromptInput carries everything the attendant prompt embeds.
type PromptInput struct {
	BusinessName  string
	Personality   string
	KnowledgeBase string
	CurrentTime   string
	Schedule      []string
	History       []HistoryLine
	Message       string
	// Scheduling selects per-item markers instead of a single total.
	Scheduling bool
}

const (
	defaultPersonality = "um atendente prestativo e profissional."
	emptySchedule      = "Nenhum horário ocupado hoje."
)

// BuildAttendantPrompt composes the single generation request sent for an
// inbound customer message.
func BuildAttendantPrompt(in PromptInput) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Você é o atendente virtual da empresa %s.\n", in.BusinessName))
	sb.WriteString(fmt.Sprintf("HORA ATUAL: %s\n\n", in.CurrentTime))

	sb.WriteString("=== AGENDA ATUAL (JÁ OCUPADOS) ===\n")
	if len(in.Schedule) == 0 {
		sb.WriteString(emptySchedule + "\n")
	}
	for _, s := range in.Schedule {
		sb.WriteString("- " + s + "\n")
	}

	personality := strings.TrimSpace(in.Personality)
	if personality == "" {
		personality = defaultPersonality
	}
	sb.WriteString("\n=== PERSONALIDADE ===\n")
	sb.WriteString(personality + "\n")

	sb.WriteString("\n=== BASE DE CONHECIMENTO ===\n")
	sb.WriteString(in.KnowledgeBase + "\n")

	sb.WriteString("\n=== HISTÓRICO DA CONVERSA ===\n")
	for _, h := range in.History {
		who := "Atendente"
		if h.FromCustomer {
			who = "Cliente"
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", who, h.Text))
	}

	sb.WriteString("\nFLUXO OBRIGATÓRIO (3 ETAPAS, NÃO PULE):\n")
	sb.WriteString("1. SERVIÇO: entenda o que o cliente deseja e pergunte o nome dele.\n")
	sb.WriteString("2. LOGÍSTICA: para entrega, peça o endereço completo; para agendamento, peça dia e horário e confira a agenda acima.\n")
	sb.WriteString("3. PAGAMENTO: pergunte a forma de pagamento (PIX, cartão ou dinheiro).\n")

	sb.WriteString("\nTAGS DO SISTEMA:\n")
	sb.WriteString("- Nunca envie [PEDIDO_FINALIZADO], ITEM: ou TOTAL: nas etapas 1 e 2. Só depois de confirmado o pagamento na etapa 3.\n")
	if in.Scheduling {
		sb.WriteString("- No fechamento, liste cada serviço em sua própria linha:\n")
		sb.WriteString("  ITEM: <serviço e horário> | VALOR: R$ 00,00\n")
		sb.WriteString("  e termine com [PEDIDO_FINALIZADO].\n")
		sb.WriteString("- Para cancelar um serviço específico use: CANCELAR_ITEM: <nome exato do serviço> [PEDIDO_CANCELADO]\n")
	} else {
		sb.WriteString("- No fechamento, escreva um resumo do pedido com o endereço e uma única linha:\n")
		sb.WriteString("  TOTAL: R$ 00,00\n")
		sb.WriteString("  e termine com [PEDIDO_FINALIZADO].\n")
		sb.WriteString("- Para cancelar o pedido use apenas: [PEDIDO_CANCELADO]\n")
	}

	sb.WriteString("\nFORMATAÇÃO:\n")
	sb.WriteString("- No máximo 2 frases curtas por mensagem; separe mensagens com uma linha em branco.\n")
	sb.WriteString("- Valores sempre no formato R$ 00,00.\n")

	sb.WriteString(fmt.Sprintf("\nMENSAGEM DO CLIENTE: %s\n", in.Message))
	sb.WriteString("RESPOSTA CURTA E DIRETA:")

	return sb.String()
}
