package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lundebo/buddy-bets/internal/ledger/money"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrIncompleteBet     = errors.New("bet has no stake or odds")
	ErrBetLimits         = errors.New("bet outside configured limits")
)

// Limits são os limites administrativos aplicados na aprovação de apostas.
type Limits struct {
	MinBetAmount money.Amount
	MaxPayout    money.Amount
}

// Postgres implementa a persistência do ledger: apostas, transações,
// saldos e trilha de auditoria. Toda mutação de saldo acontece dentro de
// uma transação com lock pessimista na linha do usuário.
type Postgres struct {
	db     *sql.DB
	limits Limits
}

func NewPostgres(db *sql.DB, limits Limits) *Postgres {
	return &Postgres{db: db, limits: limits}
}

// ---- apostas ----

// SubmitBet insere uma nova aposta PENDING. Sem efeito no saldo.
// Stake pode vir nulo; o admin completa na aprovação.
func (p *Postgres) SubmitBet(ctx context.Context, userID string, stake *money.Amount, odds float64) (string, error) {
	id := uuid.NewString()
	var stakeVal sql.NullInt64
	if stake != nil {
		stakeVal = sql.NullInt64{Int64: int64(*stake), Valid: true}
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO bets (id,user_id,stake,odds,status,created_at,updated_at)
		VALUES ($1,$2,$3,$4,'PENDING',now(),now())`,
		id, userID, stakeVal, odds,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetBet retorna uma aposta pelo id.
func (p *Postgres) GetBet(ctx context.Context, betID string) (*Bet, error) {
	b, err := scanBet(p.db.QueryRowContext(ctx, `
		SELECT id,user_id,stake,odds,status,created_at,updated_at FROM bets WHERE id=$1`, betID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return b, err
}

// ApproveBet faz PENDING -> APPROVED. Sem efeito no saldo: o ledger só é
// tocado na resolução, pra manter um único ponto de mutação por aposta.
// O admin pode completar stake/odds aqui; os limites são validados com os
// valores efetivos.
func (p *Postgres) ApproveBet(ctx context.Context, betID, adminUser string, stake *money.Amount, odds *float64) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	b, err := lockBet(ctx, tx, betID)
	if err != nil {
		return err
	}
	if !b.Status.CanTransition(BetApproved) {
		return ErrInvalidTransition
	}

	if stake != nil {
		b.Stake = stake
	}
	if odds != nil {
		b.Odds = *odds
	}
	if b.Stake == nil || *b.Stake <= 0 || b.Odds < 1.0 {
		return ErrIncompleteBet
	}
	if *b.Stake < p.limits.MinBetAmount || b.PotentialPayout() > p.limits.MaxPayout {
		return ErrBetLimits
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE bets SET stake=$1, odds=$2, status='APPROVED', updated_at=now() WHERE id=$3`,
		int64(*b.Stake), b.Odds, betID); err != nil {
		return err
	}
	if err = insertAudit(ctx, tx, adminUser, "Approved Bet", b.UserID,
		fmt.Sprintf("bet=%s stake=%d odds=%.2f", betID, *b.Stake, b.Odds)); err != nil {
		return err
	}

	return tx.Commit()
}

// RejectBet faz PENDING -> REJECTED. Nada foi debitado, então não há estorno.
func (p *Postgres) RejectBet(ctx context.Context, betID, adminUser string) error {
	return p.closePendingBet(ctx, betID, BetRejected, adminUser, "Rejected Bet")
}

// CancelBet faz PENDING -> CANCELLED (ação do próprio usuário).
func (p *Postgres) CancelBet(ctx context.Context, betID string) error {
	return p.closePendingBet(ctx, betID, BetCancelled, "", "")
}

func (p *Postgres) closePendingBet(ctx context.Context, betID string, to BetStatus, adminUser, action string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	b, err := lockBet(ctx, tx, betID)
	if err != nil {
		return err
	}
	if !b.Status.CanTransition(to) {
		return ErrInvalidTransition
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE bets SET status=$1, updated_at=now() WHERE id=$2`, string(to), betID); err != nil {
		return err
	}
	if adminUser != "" {
		if err = insertAudit(ctx, tx, adminUser, action, b.UserID, "bet="+betID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ResolveBet faz APPROVED -> WON|LOST|VOID e aplica o delta no saldo do dono,
// tudo na mesma transação. O guard de status garante que o delta é aplicado
// exatamente uma vez: um segundo resolver encontra status terminal e falha.
func (p *Postgres) ResolveBet(ctx context.Context, betID string, outcome BetStatus, adminUser string) (*Bet, error) {
	if !outcome.Outcome() {
		return nil, ErrInvalidTransition
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	b, err := lockBet(ctx, tx, betID)
	if err != nil {
		return nil, err
	}
	if !b.Status.CanTransition(outcome) {
		return nil, ErrInvalidTransition
	}
	if b.Stake == nil {
		return nil, ErrIncompleteBet
	}

	delta := b.ledgerDelta(outcome)
	if delta != 0 {
		if err = applyDelta(ctx, tx, b.UserID, delta, "bet-"+string(outcome)+":"+betID); err != nil {
			return nil, err
		}
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE bets SET status=$1, updated_at=now() WHERE id=$2`, string(outcome), betID); err != nil {
		return nil, err
	}
	if err = insertAudit(ctx, tx, adminUser, "Resolved Bet "+string(outcome), b.UserID,
		fmt.Sprintf("bet=%s stake=%d odds=%.2f delta=%d", betID, *b.Stake, b.Odds, delta)); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	b.Status = outcome
	return b, nil
}

// CountPendingBets retorna quantas apostas aguardam decisão e a mais antiga.
func (p *Postgres) CountPendingBets(ctx context.Context) (count int, oldestID string, err error) {
	if err = p.db.QueryRowContext(ctx,
		`SELECT count(*) FROM bets WHERE status='PENDING'`).Scan(&count); err != nil {
		return 0, "", err
	}
	if count == 0 {
		return 0, "", nil
	}
	err = p.db.QueryRowContext(ctx,
		`SELECT id FROM bets WHERE status='PENDING' ORDER BY created_at ASC LIMIT 1`).Scan(&oldestID)
	if err == sql.ErrNoRows {
		return count, "", nil
	}
	return count, oldestID, err
}

// ---- transações (depósito/saque) ----

// RequestWithdrawal cria um saque PENDING e debita o saldo imediatamente
// (bloqueio provisório): o usuário não consegue pedir o mesmo dinheiro duas vezes.
func (p *Postgres) RequestWithdrawal(ctx context.Context, userID string, amount money.Amount, platform, detail string) (string, error) {
	if amount <= 0 {
		return "", ErrInvalidTransition
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	bal, err := lockBalance(ctx, tx, userID)
	if err != nil {
		return "", err
	}
	if bal < amount {
		return "", ErrInsufficientFunds
	}

	id := uuid.NewString()
	if err = applyDeltaLocked(ctx, tx, userID, -amount, "withdrawal-hold:"+id); err != nil {
		return "", err
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id,user_id,type,amount,platform,payment_detail,status,created_at,updated_at)
		VALUES ($1,$2,'WITHDRAWAL',$3,$4,$5,'PENDING',now(),now())`,
		id, userID, int64(amount), platform, detail); err != nil {
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// CreateDeposit registra um depósito, criado pelo admin já COMPLETED (credita
// na hora) ou PENDING (credita na aprovação).
func (p *Postgres) CreateDeposit(ctx context.Context, userID string, amount money.Amount, platform, detail, adminUser string, completed bool) (string, error) {
	if amount <= 0 {
		return "", ErrInvalidTransition
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	id := uuid.NewString()
	status := TxnPending
	if completed {
		status = TxnCompleted
		if err = applyDelta(ctx, tx, userID, amount, "deposit:"+id); err != nil {
			return "", err
		}
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id,user_id,type,amount,platform,payment_detail,status,created_at,updated_at)
		VALUES ($1,$2,'DEPOSIT',$3,$4,$5,$6,now(),now())`,
		id, userID, int64(amount), platform, detail, string(status)); err != nil {
		return "", err
	}
	if err = insertAudit(ctx, tx, adminUser, "Deposit", userID,
		fmt.Sprintf("txn=%s amount=%d status=%s", id, amount, status)); err != nil {
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// ApproveTransaction faz PENDING -> COMPLETED. Saque já foi debitado no pedido;
// depósito é creditado aqui. Guard de status evita crédito duplo.
func (p *Postgres) ApproveTransaction(ctx context.Context, txnID, adminUser string) (*Transaction, error) {
	return p.decideTransaction(ctx, txnID, adminUser, TxnCompleted)
}

// RejectTransaction faz PENDING -> REJECTED. Saque rejeitado devolve o valor
// retido; depósito rejeitado não tem o que estornar.
func (p *Postgres) RejectTransaction(ctx context.Context, txnID, adminUser string) (*Transaction, error) {
	return p.decideTransaction(ctx, txnID, adminUser, TxnRejected)
}

func (p *Postgres) decideTransaction(ctx context.Context, txnID, adminUser string, to TxnStatus) (*Transaction, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	t, err := lockTransaction(ctx, tx, txnID)
	if err != nil {
		return nil, err
	}
	if t.Status != TxnPending {
		return nil, ErrInvalidTransition
	}

	switch {
	case to == TxnCompleted && t.Type == TxnDeposit:
		err = applyDelta(ctx, tx, t.UserID, t.Amount, "deposit:"+txnID)
	case to == TxnRejected && t.Type == TxnWithdrawal:
		err = applyDelta(ctx, tx, t.UserID, t.Amount, "withdrawal-refund:"+txnID)
	}
	if err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE transactions SET status=$1, updated_at=now() WHERE id=$2`, string(to), txnID); err != nil {
		return nil, err
	}
	action := "Approved Transaction"
	if to == TxnRejected {
		action = "Rejected Transaction"
	}
	if err = insertAudit(ctx, tx, adminUser, action, t.UserID,
		fmt.Sprintf("txn=%s type=%s amount=%d", txnID, t.Type, t.Amount)); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	t.Status = to
	return t, nil
}

// ---- saldos ----

// GetBalance retorna o saldo do usuário, criando a linha zerada se não existir.
func (p *Postgres) GetBalance(ctx context.Context, userID string) (money.Amount, error) {
	var bal int64
	err := p.db.QueryRowContext(ctx, `SELECT balance FROM users WHERE user_id=$1`, userID).Scan(&bal)
	if err == sql.ErrNoRows {
		_, err = p.db.ExecContext(ctx,
			`INSERT INTO users(user_id, balance, version) VALUES($1,0,1) ON CONFLICT (user_id) DO NOTHING`, userID)
		return 0, err
	}
	return money.Amount(bal), err
}

// ListBalances retorna o saldo de todos os usuários, ordenado por user_id.
func (p *Postgres) ListBalances(ctx context.Context) ([]UserBalance, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT user_id, balance, version FROM users ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserBalance
	for rows.Next() {
		var ub UserBalance
		var bal int64
		if err := rows.Scan(&ub.UserID, &bal, &ub.Version); err != nil {
			return nil, err
		}
		ub.Balance = money.Amount(bal)
		out = append(out, ub)
	}
	return out, rows.Err()
}

// AdjustBalance é o override administrativo: única forma de editar saldo fora
// do ciclo aposta/transação. Sempre auditado.
func (p *Postgres) AdjustBalance(ctx context.Context, userID string, delta money.Amount, adminUser, reason string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err = applyDelta(ctx, tx, userID, delta, "admin-adjust"); err != nil {
		return err
	}
	if err = insertAudit(ctx, tx, adminUser, "Adjusted Balance", userID,
		fmt.Sprintf("delta=%d reason=%s", delta, reason)); err != nil {
		return err
	}
	return tx.Commit()
}

// ---- helpers internos ----

func scanBet(row *sql.Row) (*Bet, error) {
	var b Bet
	var stake sql.NullInt64
	var status string
	if err := row.Scan(&b.ID, &b.UserID, &stake, &b.Odds, &status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if stake.Valid {
		s := money.Amount(stake.Int64)
		b.Stake = &s
	}
	b.Status = BetStatus(status)
	return &b, nil
}

func lockBet(ctx context.Context, tx *sql.Tx, betID string) (*Bet, error) {
	b, err := scanBet(tx.QueryRowContext(ctx, `
		SELECT id,user_id,stake,odds,status,created_at,updated_at FROM bets WHERE id=$1 FOR UPDATE`, betID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return b, err
}

func lockTransaction(ctx context.Context, tx *sql.Tx, txnID string) (*Transaction, error) {
	var t Transaction
	var typ, status string
	var amount int64
	err := tx.QueryRowContext(ctx, `
		SELECT id,user_id,type,amount,platform,payment_detail,status,created_at,updated_at
		FROM transactions WHERE id=$1 FOR UPDATE`, txnID).
		Scan(&t.ID, &t.UserID, &typ, &amount, &t.Platform, &t.PaymentDetail, &status, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.Type = TxnType(typ)
	t.Amount = money.Amount(amount)
	t.Status = TxnStatus(status)
	return &t, nil
}

// lockBalance garante a linha do usuário (criando zerada se preciso) e a
// trava até o fim da transação.
func lockBalance(ctx context.Context, tx *sql.Tx, userID string) (money.Amount, error) {
	var bal int64
	err := tx.QueryRowContext(ctx, `SELECT balance FROM users WHERE user_id=$1 FOR UPDATE`, userID).Scan(&bal)
	if err == sql.ErrNoRows {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO users(user_id, balance, version) VALUES($1,0,1)`, userID); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return money.Amount(bal), err
}

// applyDelta trava a linha do usuário e aplica o delta com registro imutável
// em balance_entries. O saldo vivo funciona como cache do log de entradas.
func applyDelta(ctx context.Context, tx *sql.Tx, userID string, delta money.Amount, source string) error {
	if _, err := lockBalance(ctx, tx, userID); err != nil {
		return err
	}
	return applyDeltaLocked(ctx, tx, userID, delta, source)
}

// applyDeltaLocked assume que a linha do usuário já está travada na transação.
func applyDeltaLocked(ctx context.Context, tx *sql.Tx, userID string, delta money.Amount, source string) error {
	var newBal int64
	if err := tx.QueryRowContext(ctx, `
		UPDATE users SET balance = balance + $1, version = version + 1
		WHERE user_id=$2 RETURNING balance`, int64(delta), userID).Scan(&newBal); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO balance_entries(user_id, delta, balance_after, source, created_at)
		VALUES($1,$2,$3,$4,now())`, userID, int64(delta), newBal, source)
	return err
}

func insertAudit(ctx context.Context, tx *sql.Tx, adminUser, action, targetUser, details string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_log(ts, admin_user, action, target_user, details)
		VALUES(now(),$1,$2,$3,$4)`, adminUser, action, targetUser, details)
	return err
}
