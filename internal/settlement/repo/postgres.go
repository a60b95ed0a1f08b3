package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lundebo/buddy-bets/internal/ledger/money"
	"github.com/lundebo/buddy-bets/internal/settlement/engine"
)

var ErrNotFound = errors.New("not found")

// Snapshot é o registro imutável de uma rodada de settlement.
// SettlementJSON guarda o resultado serializado; o formato em disco é estável
// pra manter o export de snapshots históricos funcionando.
type Snapshot struct {
	ID               string
	CreatedAt        time.Time
	SettlementJSON   string
	UserCount        int
	TransactionCount int
	TotalVolume      money.Amount
}

// Postgres implementa o armazenamento de snapshots e a leitura consistente
// de saldos usada pelo engine de settlement.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// NonZeroBalances lê os saldos diferentes de zero em uma transação
// REPEATABLE READ: o settlement enxerga os saldos como eram naquele instante,
// mesmo com apostas sendo resolvidas em paralelo.
func (p *Postgres) NonZeroBalances(ctx context.Context) ([]engine.Balance, error) {
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT user_id, balance FROM users WHERE balance <> 0 ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Balance
	for rows.Next() {
		var b engine.Balance
		var bal int64
		if err := rows.Scan(&b.UserID, &bal); err != nil {
			return nil, err
		}
		b.Amount = money.Amount(bal)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, tx.Commit()
}

// InsertSnapshot persiste o snapshot em um único INSERT atômico.
func (p *Postgres) InsertSnapshot(ctx context.Context, s *Snapshot) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO settlement_snapshots (id, created_at, settlement_json, user_count, transaction_count, total_volume)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		s.ID, s.CreatedAt, s.SettlementJSON, s.UserCount, s.TransactionCount, int64(s.TotalVolume))
	return err
}

// GetSnapshot retorna um snapshot pelo id.
func (p *Postgres) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	s, err := scanSnapshot(p.db.QueryRowContext(ctx, `
		SELECT id, created_at, settlement_json, user_count, transaction_count, total_volume
		FROM settlement_snapshots WHERE id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return s, err
}

// ListSnapshots retorna os snapshots mais recentes (sem o payload serializado).
func (p *Postgres) ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, created_at, user_count, transaction_count, total_volume
		FROM settlement_snapshots ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		var vol int64
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.UserCount, &s.TransactionCount, &vol); err != nil {
			return nil, err
		}
		s.TotalVolume = money.Amount(vol)
		out = append(out, s)
	}
	return out, rows.Err()
}

// LatestSnapshotTime é o watermark do scheduler: o horário da última rodada
// persistida, comparado contra a janela corrente pra evitar rodada dupla.
func (p *Postgres) LatestSnapshotTime(ctx context.Context) (time.Time, bool, error) {
	var ts time.Time
	err := p.db.QueryRowContext(ctx,
		`SELECT created_at FROM settlement_snapshots ORDER BY created_at DESC LIMIT 1`).Scan(&ts)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return ts, true, nil
}

func scanSnapshot(row *sql.Row) (*Snapshot, error) {
	var s Snapshot
	var vol int64
	if err := row.Scan(&s.ID, &s.CreatedAt, &s.SettlementJSON, &s.UserCount, &s.TransactionCount, &vol); err != nil {
		return nil, err
	}
	s.TotalVolume = money.Amount(vol)
	return &s, nil
}
