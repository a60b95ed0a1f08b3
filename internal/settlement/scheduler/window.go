package scheduler

import "time"

// Window é a janela semanal de settlement: um dia/hora/minuto específico
// em um fuso configurado (ex: domingo 23:59 Europe/Oslo).
type Window struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
	Loc     *time.Location
}

// Matches informa se o instante cai dentro da janela (granularidade de 1 min).
func (w Window) Matches(t time.Time) bool {
	lt := t.In(w.Loc)
	return lt.Weekday() == w.Weekday && lt.Hour() == w.Hour && lt.Minute() == w.Minute
}

// OccurrenceStart retorna o início (segundo zero) da ocorrência da janela em
// que t está. Só faz sentido quando Matches(t) é verdadeiro; é a referência
// contra a qual o watermark de última rodada é comparado.
func (w Window) OccurrenceStart(t time.Time) time.Time {
	lt := t.In(w.Loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), w.Hour, w.Minute, 0, 0, w.Loc)
}
