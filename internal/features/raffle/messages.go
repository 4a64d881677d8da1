// Package raffle — messages.go monta os textos da mensagem pública de
// acompanhamento de cada rifa. O Discord original usava embeds; no
// Telegram a mesma informação vira texto simples.
package raffle

import (
	"fmt"
	"strings"
	"time"

	"rifa-bot/internal/common"
)

// BuildStatusMessage monta o texto da rifa ativa.
func BuildStatusMessage(rifa *Rifa, vendidos int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🎟️ Rifa #%d: %s\n", rifa.ID, rifa.NomePremio)
	fmt.Fprintf(&b, "Participe e concorra a %s!\n\n", rifa.NomePremio)
	writeProgress(&b, rifa, vendidos)
	fmt.Fprintf(&b, "💰 Preço por bilhete: %s\n", common.FormatPrice(rifa.PrecoBilhete))
	fmt.Fprintf(&b, "Mecânica: %s\n", metodoLabel(rifa.MetodoSorteio))
	fmt.Fprintf(&b, "Status: %s\n", strings.ToUpper(rifa.Status))

	if rifa.MetodoSorteio == MetodoLoteria && rifa.MetaCompletude != nil {
		fmt.Fprintf(&b, "Meta para o sorteio: atingir %.0f%% de vendas.\n", *rifa.MetaCompletude*100)
	}

	b.WriteString("\nUse /comprar na minha DM para garantir seus bilhetes.")
	return b.String()
}

// BuildAwaitingDrawMessage monta o texto após a meta ser atingida.
func BuildAwaitingDrawMessage(rifa *Rifa, vendidos int, sorteioData time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🎟️ Rifa #%d: %s\n", rifa.ID, rifa.NomePremio)
	b.WriteString("META ATINGIDA! O sorteio foi agendado!\n\n")
	fmt.Fprintf(&b, "📅 Data do sorteio (Loteria Federal): %s\n", common.FormatDate(sorteioData))
	writeProgress(&b, rifa, vendidos)
	fmt.Fprintf(&b, "💰 Preço por bilhete: %s\n", common.FormatPrice(rifa.PrecoBilhete))
	b.WriteString("Status: AGUARDANDO SORTEIO\n")
	b.WriteString("\nBoa sorte! As vendas continuam abertas até o sorteio.")
	return b.String()
}

// BuildWinnerMessage monta o anúncio do vencedor, com o ranking de
// maiores compradores quando houver.
func BuildWinnerMessage(rifa *Rifa, venc *Vencedor, top []TopComprador) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🎉 Sorteio finalizado! Rifa #%d: %s\n\n", rifa.ID, rifa.NomePremio)
	fmt.Fprintf(&b, "🏆 Vencedor: %s\n", venc.Nome)
	fmt.Fprintf(&b, "Número sorteado: %s\n", venc.NumeroBilhete)
	b.WriteString("Status: FINALIZADA\n")

	if len(top) > 0 {
		b.WriteString("\n📊 Maiores compradores:\n")
		for i, tc := range top {
			fmt.Fprintf(&b, "%dº %s — %s\n", i+1, tc.Nome, common.FormatBilhetes(tc.Bilhetes))
		}
	}

	b.WriteString("\nObrigado a todos que participaram!")
	return b.String()
}

// BuildNoWinnerMessage monta o anúncio quando o número mapeado da loteria
// não foi vendido. A rifa finaliza sem vencedor — a política de
// repescagem fica a cargo dos administradores.
func BuildNoWinnerMessage(rifa *Rifa, numero string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "ℹ️ Sorteio da loteria registrado! Rifa #%d: %s\n\n", rifa.ID, rifa.NomePremio)
	fmt.Fprintf(&b, "O bilhete %s não foi vendido, portanto não houve vencedor.\n", numero)
	b.WriteString("Status: FINALIZADA\n")
	b.WriteString("\nA administração entrará em contato sobre os próximos passos.")
	return b.String()
}

// BuildCancelledMessage monta o aviso de cancelamento.
func BuildCancelledMessage(rifa *Rifa, motivo string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "❌ Rifa cancelada — #%d: %s\n\n", rifa.ID, rifa.NomePremio)
	b.WriteString("Esta rifa foi cancelada e não está mais ativa.\n")
	fmt.Fprintf(&b, "Motivo: %s\n", motivo)
	b.WriteString("\nNovas compras estão bloqueadas.")
	return b.String()
}

func writeProgress(b *strings.Builder, rifa *Rifa, vendidos int) {
	progresso := float64(vendidos) / float64(rifa.TotalBilhetes) * 100
	fmt.Fprintf(b, "🎟️ Progresso: %d / %d bilhetes vendidos (%.1f%%)\n",
		vendidos, rifa.TotalBilhetes, progresso)
}

func metodoLabel(metodo string) string {
	if metodo == MetodoLoteria {
		return "Sorteio pela Loteria Federal"
	}
	return "Sorteio pelo bot"
}
