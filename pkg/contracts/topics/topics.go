package topics

const (
	// Decisões administrativas (aposta/transação)
	BetDecided         = "bet_decided"
	TransactionDecided = "transaction_decided"

	// Fechamento semanal (snapshot do acerto de contas)
	SettlementCreated = "settlement_created"

	// Lembrete de apostas paradas em PENDING
	PendingBetsReminder = "pending_bets_reminder"
)
