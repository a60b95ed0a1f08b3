package money

import "math"

// Amount é um valor monetário em unidades inteiras (NOK, sem centavos).
// Positivo = o grupo deve ao usuário; negativo = o usuário deve ao grupo.
type Amount int64

// PotentialPayout calcula o retorno potencial de uma aposta: floor(stake * odds).
// Arredonda sempre para baixo, nunca para o inteiro mais próximo.
func PotentialPayout(stake Amount, odds float64) Amount {
	return Amount(math.Floor(float64(stake) * odds))
}

// NetGain retorna o ganho líquido de uma aposta vencedora (payout - stake).
func NetGain(stake Amount, odds float64) Amount {
	return PotentialPayout(stake, odds) - stake
}

func Abs(a Amount) Amount {
	if a < 0 {
		return -a
	}
	return a
}
