package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/lundebo/buddy-bets/internal/settlement/engine"
)

const timeLayout = "2006-01-02 15:04:05"

// CSV gera a representação tabular de um resultado de settlement: cabeçalho
// com o horário do snapshot (UTC e fuso local configurado), linha em branco,
// e uma linha por instrução de pagamento e por ajuste. Transformação pura,
// sem efeito colateral.
func CSV(result engine.Result, createdAtUTC time.Time, local *time.Location) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Snapshot Time (UTC),%s\n", createdAtUTC.UTC().Format(timeLayout)))
	sb.WriteString(fmt.Sprintf("Snapshot Time (%s),%s\n", local.String(), createdAtUTC.In(local).Format(timeLayout)))
	sb.WriteString("\n")

	sb.WriteString("Type,From,To,Amount,Details\n")

	for _, in := range result.Instructions {
		sb.WriteString(fmt.Sprintf("Payment,%s,%s,%d,\n", in.FromUser, in.ToUser, in.Amount))
	}
	for _, adj := range result.Adjustments {
		sb.WriteString(fmt.Sprintf("Adjustment,-,-,%d,%s (%s)\n", adj.Amount, adj.Reason, adj.UserName))
	}

	return sb.String()
}
