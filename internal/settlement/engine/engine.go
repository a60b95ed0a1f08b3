package engine

import (
	"sort"
	"time"

	"github.com/lundebo/buddy-bets/internal/ledger/money"
)

// As tags JSON seguem o formato histórico dos snapshots persistidos;
// mudar os nomes quebraria o export de snapshots antigos.

// Balance é a posição líquida de um usuário na hora do settlement.
type Balance struct {
	UserID string
	Amount money.Amount
}

// Instruction é um pagamento ponto-a-ponto do plano de acerto.
type Instruction struct {
	FromUser string       `json:"FromUser"`
	ToUser   string       `json:"ToUser"`
	Amount   money.Amount `json:"Amount"`
}

// Adjustment registra um resíduo que não encontrou contraparte no netting.
// Só aparece quando a soma dos saldos não fecha em zero.
type Adjustment struct {
	UserName string       `json:"UserName"`
	Amount   money.Amount `json:"Amount"`
	Reason   string       `json:"Reason"`
}

type Result struct {
	Date         time.Time     `json:"Date"`
	Instructions []Instruction `json:"Instructions"`
	Adjustments  []Adjustment  `json:"Adjustments"`
}

const (
	ReasonUnmatchedDeficit = "Unmatched Deficit"
	ReasonUnmatchedSurplus = "Unmatched Surplus"

	// Resíduo abaixo de 1 unidade inteira conta como quitado
	epsilon = money.Amount(1)
)

type party struct {
	name   string
	amount money.Amount // sempre positivo (valor devido/a receber)
}

// Net transforma os saldos em um plano de pagamentos mínimo via netting guloso:
// devedores e credores ordenados por valor decrescente, dois cursores, cada
// passo casa o menor dos dois valores correntes. Não é o mínimo teórico de
// transações para qualquer distribuição, mas é um mínimo prático e barato.
//
// Desempate determinístico: valores iguais ordenam por user id ascendente,
// pra que a mesma entrada produza sempre o mesmo plano.
func Net(balances []Balance, now time.Time) Result {
	res := Result{
		Date:         now,
		Instructions: []Instruction{},
		Adjustments:  []Adjustment{},
	}

	var debtors, creditors []party
	for _, b := range balances {
		switch {
		case b.Amount < 0:
			debtors = append(debtors, party{name: b.UserID, amount: -b.Amount})
		case b.Amount > 0:
			creditors = append(creditors, party{name: b.UserID, amount: b.Amount})
		}
	}

	sortParties(debtors)
	sortParties(creditors)

	d, c := 0, 0
	for d < len(debtors) && c < len(creditors) {
		amount := debtors[d].amount
		if creditors[c].amount < amount {
			amount = creditors[c].amount
		}

		res.Instructions = append(res.Instructions, Instruction{
			FromUser: debtors[d].name,
			ToUser:   creditors[c].name,
			Amount:   amount,
		})

		debtors[d].amount -= amount
		creditors[c].amount -= amount

		if debtors[d].amount < epsilon {
			d++
		}
		if creditors[c].amount < epsilon {
			c++
		}
	}

	// Sobras só existem se a soma dos saldos não era zero (invariante violado
	// a montante). Viram ajustes pra não bloquear o settlement inteiro.
	for ; d < len(debtors); d++ {
		res.Adjustments = append(res.Adjustments, Adjustment{
			UserName: debtors[d].name,
			Amount:   -debtors[d].amount,
			Reason:   ReasonUnmatchedDeficit,
		})
	}
	for ; c < len(creditors); c++ {
		res.Adjustments = append(res.Adjustments, Adjustment{
			UserName: creditors[c].name,
			Amount:   creditors[c].amount,
			Reason:   ReasonUnmatchedSurplus,
		})
	}

	return res
}

func sortParties(ps []party) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].amount != ps[j].amount {
			return ps[i].amount > ps[j].amount
		}
		return ps[i].name < ps[j].name
	})
}

// TotalVolume soma o valor movido pelas instruções do plano.
func (r Result) TotalVolume() money.Amount {
	var total money.Amount
	for _, in := range r.Instructions {
		total += in.Amount
	}
	return total
}
