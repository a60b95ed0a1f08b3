package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lundebo/buddy-bets/internal/ledger/dto"
	"github.com/lundebo/buddy-bets/internal/ledger/money"
	"github.com/lundebo/buddy-bets/internal/ledger/repo"
	"github.com/lundebo/buddy-bets/internal/settlement/engine"
	"github.com/lundebo/buddy-bets/internal/settlement/export"
	srepo "github.com/lundebo/buddy-bets/internal/settlement/repo"
	"github.com/lundebo/buddy-bets/pkg/contracts/events"
)

// Ledger define as operações de aposta/transação/saldo usadas pelos handlers.
type Ledger interface {
	SubmitBet(ctx context.Context, userID string, stake *money.Amount, odds float64) (string, error)
	GetBet(ctx context.Context, betID string) (*repo.Bet, error)
	ApproveBet(ctx context.Context, betID, adminUser string, stake *money.Amount, odds *float64) error
	RejectBet(ctx context.Context, betID, adminUser string) error
	CancelBet(ctx context.Context, betID string) error
	ResolveBet(ctx context.Context, betID string, outcome repo.BetStatus, adminUser string) (*repo.Bet, error)

	RequestWithdrawal(ctx context.Context, userID string, amount money.Amount, platform, detail string) (string, error)
	CreateDeposit(ctx context.Context, userID string, amount money.Amount, platform, detail, adminUser string, completed bool) (string, error)
	ApproveTransaction(ctx context.Context, txnID, adminUser string) (*repo.Transaction, error)
	RejectTransaction(ctx context.Context, txnID, adminUser string) (*repo.Transaction, error)

	GetBalance(ctx context.Context, userID string) (money.Amount, error)
	ListBalances(ctx context.Context) ([]repo.UserBalance, error)
	AdjustBalance(ctx context.Context, userID string, delta money.Amount, adminUser, reason string) error
}

// Settlements dispara uma rodada de settlement sob demanda.
type Settlements interface {
	CreateSnapshot(ctx context.Context) (*srepo.Snapshot, error)
}

// SnapshotStore lê snapshots históricos pra listagem e export.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, id string) (*srepo.Snapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]srepo.Snapshot, error)
}

// Publisher notifica as transições (best-effort, nunca desfaz a mutação).
type Publisher interface {
	PublishBetDecided(ctx context.Context, e events.BetDecided) error
	PublishTransactionDecided(ctx context.Context, e events.TransactionDecided) error
	PublishSettlementCreated(ctx context.Context, e events.SettlementCreated) error
}

// Server expõe a API administrativa do ledger e do settlement.
type Server struct {
	log       *zap.Logger
	ledger    Ledger
	settle    Settlements
	snapshots SnapshotStore
	publ      Publisher
	exportTZ  *time.Location
}

func NewServer(log *zap.Logger, l Ledger, s Settlements, store SnapshotStore, p Publisher, exportTZ *time.Location) *Server {
	return &Server{log: log, ledger: l, settle: s, snapshots: store, publ: p, exportTZ: exportTZ}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bets/submit", s.submitBet)   // POST
	mux.HandleFunc("/bets/approve", s.approveBet) // POST
	mux.HandleFunc("/bets/reject", s.rejectBet)   // POST
	mux.HandleFunc("/bets/cancel", s.cancelBet)   // POST
	mux.HandleFunc("/bets/resolve", s.resolveBet) // POST
	mux.HandleFunc("/bets/", s.getBet)            // GET /bets/{id}

	mux.HandleFunc("/transactions/request", s.requestWithdrawal) // POST
	mux.HandleFunc("/transactions/deposit", s.createDeposit)     // POST
	mux.HandleFunc("/transactions/approve", s.approveTxn)        // POST
	mux.HandleFunc("/transactions/reject", s.rejectTxn)          // POST

	mux.HandleFunc("/balances", s.listBalances)         // GET
	mux.HandleFunc("/balances/adjust", s.adjustBalance) // POST

	mux.HandleFunc("/settlement/run", s.runSettlement)        // POST
	mux.HandleFunc("/settlement/snapshots", s.listSnapshots)  // GET
	mux.HandleFunc("/settlement/export", s.exportSnapshot)    // GET ?id=...
	return mux
}

// ---- apostas ----

func (s *Server) submitBet(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitBetRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.UserID == "" || (req.Stake != nil && *req.Stake <= 0) || (req.Odds != 0 && req.Odds < 1.0) {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	var stake *money.Amount
	if req.Stake != nil {
		a := money.Amount(*req.Stake)
		stake = &a
	}
	betID, err := s.ledger.SubmitBet(r.Context(), req.UserID, stake, req.Odds)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.notifyBet(r.Context(), betID, "")
	writeJSON(w, dto.BetResponse{BetID: betID, UserID: req.UserID, Status: string(repo.BetPending), Stake: req.Stake, Odds: req.Odds})
}

func (s *Server) approveBet(w http.ResponseWriter, r *http.Request) {
	var req dto.ApproveBetRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.BetID == "" || req.AdminUser == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	var stake *money.Amount
	if req.Stake != nil {
		a := money.Amount(*req.Stake)
		stake = &a
	}
	if err := s.ledger.ApproveBet(r.Context(), req.BetID, req.AdminUser, stake, req.Odds); err != nil {
		s.fail(w, err)
		return
	}
	s.notifyBet(r.Context(), req.BetID, req.AdminUser)
	s.respondBet(w, r, req.BetID)
}

func (s *Server) rejectBet(w http.ResponseWriter, r *http.Request) {
	var req dto.RejectBetRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.BetID == "" || req.AdminUser == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := s.ledger.RejectBet(r.Context(), req.BetID, req.AdminUser); err != nil {
		s.fail(w, err)
		return
	}
	s.notifyBet(r.Context(), req.BetID, req.AdminUser)
	s.respondBet(w, r, req.BetID)
}

func (s *Server) cancelBet(w http.ResponseWriter, r *http.Request) {
	var req dto.CancelBetRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.BetID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := s.ledger.CancelBet(r.Context(), req.BetID); err != nil {
		s.fail(w, err)
		return
	}
	s.notifyBet(r.Context(), req.BetID, "")
	s.respondBet(w, r, req.BetID)
}

func (s *Server) resolveBet(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveBetRequest
	if !decodePost(w, r, &req) {
		return
	}
	outcome := repo.BetStatus(req.Outcome)
	if req.BetID == "" || req.AdminUser == "" || !outcome.Outcome() {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	b, err := s.ledger.ResolveBet(r.Context(), req.BetID, outcome, req.AdminUser)
	if err != nil {
		s.fail(w, err)
		return
	}

	ev := events.BetDecided{
		BetID:     b.ID,
		UserID:    b.UserID,
		Status:    string(b.Status),
		Odds:      b.Odds,
		AdminUser: req.AdminUser,
	}
	if b.Stake != nil {
		ev.Stake = int64(*b.Stake)
	}
	if b.Status == repo.BetWon {
		ev.Payout = int64(b.PotentialPayout())
	}
	if err := s.publ.PublishBetDecided(r.Context(), ev); err != nil {
		s.log.Warn("bet decided notify failed", zap.String("betId", b.ID), zap.Error(err))
	}

	writeJSON(w, betResponse(b))
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Path[len("/bets/"):]
	if id == "" {
		http.Error(w, "betId required", http.StatusBadRequest)
		return
	}
	b, err := s.ledger.GetBet(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, betResponse(b))
}

// ---- transações ----

func (s *Server) requestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req dto.WithdrawalRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Amount <= 0 || req.Platform == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	txnID, err := s.ledger.RequestWithdrawal(r.Context(), req.UserID, money.Amount(req.Amount), req.Platform, req.PaymentDetail)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.notifyTxn(r.Context(), events.TransactionDecided{
		TransactionID: txnID,
		UserID:        req.UserID,
		Type:          string(repo.TxnWithdrawal),
		Status:        string(repo.TxnPending),
		Amount:        req.Amount,
		Platform:      req.Platform,
	})
	writeJSON(w, dto.TransactionResponse{TransactionID: txnID, Status: string(repo.TxnPending)})
}

func (s *Server) createDeposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Amount <= 0 || req.AdminUser == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	txnID, err := s.ledger.CreateDeposit(r.Context(), req.UserID, money.Amount(req.Amount), req.Platform, req.PaymentDetail, req.AdminUser, req.Completed)
	if err != nil {
		s.fail(w, err)
		return
	}
	status := repo.TxnPending
	if req.Completed {
		status = repo.TxnCompleted
	}
	s.notifyTxn(r.Context(), events.TransactionDecided{
		TransactionID: txnID,
		UserID:        req.UserID,
		Type:          string(repo.TxnDeposit),
		Status:        string(status),
		Amount:        req.Amount,
		Platform:      req.Platform,
		AdminUser:     req.AdminUser,
	})
	writeJSON(w, dto.TransactionResponse{TransactionID: txnID, Status: string(status)})
}

func (s *Server) approveTxn(w http.ResponseWriter, r *http.Request) {
	s.decideTxn(w, r, s.ledger.ApproveTransaction)
}

func (s *Server) rejectTxn(w http.ResponseWriter, r *http.Request) {
	s.decideTxn(w, r, s.ledger.RejectTransaction)
}

func (s *Server) decideTxn(w http.ResponseWriter, r *http.Request, decide func(ctx context.Context, txnID, adminUser string) (*repo.Transaction, error)) {
	var req dto.DecideTransactionRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.TransactionID == "" || req.AdminUser == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	t, err := decide(r.Context(), req.TransactionID, req.AdminUser)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.notifyTxn(r.Context(), events.TransactionDecided{
		TransactionID: t.ID,
		UserID:        t.UserID,
		Type:          string(t.Type),
		Status:        string(t.Status),
		Amount:        int64(t.Amount),
		Platform:      t.Platform,
		AdminUser:     req.AdminUser,
	})
	writeJSON(w, dto.TransactionResponse{TransactionID: t.ID, Status: string(t.Status)})
}

// ---- saldos ----

func (s *Server) listBalances(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	balances, err := s.ledger.ListBalances(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	out := make([]dto.BalanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, dto.BalanceResponse{UserID: b.UserID, Balance: int64(b.Balance)})
	}
	writeJSON(w, out)
}

func (s *Server) adjustBalance(w http.ResponseWriter, r *http.Request) {
	var req dto.AdjustBalanceRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Delta == 0 || req.AdminUser == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := s.ledger.AdjustBalance(r.Context(), req.UserID, money.Amount(req.Delta), req.AdminUser, req.Reason); err != nil {
		s.fail(w, err)
		return
	}
	bal, err := s.ledger.GetBalance(r.Context(), req.UserID)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, dto.BalanceResponse{UserID: req.UserID, Balance: int64(bal)})
}

// ---- settlement ----

func (s *Server) runSettlement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap, err := s.settle.CreateSnapshot(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.publ.PublishSettlementCreated(r.Context(), events.SettlementCreated{
		SnapshotID:       snap.ID,
		UserCount:        snap.UserCount,
		TransactionCount: snap.TransactionCount,
		TotalVolume:      int64(snap.TotalVolume),
		CreatedAt:        snap.CreatedAt,
	}); err != nil {
		s.log.Warn("settlement notify failed", zap.Error(err))
	}
	writeJSON(w, snapshotResponse(snap))
}

func (s *Server) listSnapshots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snaps, err := s.snapshots.ListSnapshots(r.Context(), 50)
	if err != nil {
		s.fail(w, err)
		return
	}
	out := make([]dto.SnapshotResponse, 0, len(snaps))
	for i := range snaps {
		out = append(out, snapshotResponse(&snaps[i]))
	}
	writeJSON(w, out)
}

func (s *Server) exportSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	snap, err := s.snapshots.GetSnapshot(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	var result engine.Result
	if err := json.Unmarshal([]byte(snap.SettlementJSON), &result); err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="settlement-`+snap.CreatedAt.Format("2006-01-02")+`.csv"`)
	_, _ = w.Write([]byte(export.CSV(result, snap.CreatedAt, s.exportTZ)))
}

// ---- helpers ----

func (s *Server) respondBet(w http.ResponseWriter, r *http.Request, betID string) {
	b, err := s.ledger.GetBet(r.Context(), betID)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, betResponse(b))
}

// notifyBet publica o estado pós-transição; falha é só logada.
func (s *Server) notifyBet(ctx context.Context, betID, adminUser string) {
	b, err := s.ledger.GetBet(ctx, betID)
	if err != nil {
		return
	}
	ev := events.BetDecided{BetID: b.ID, UserID: b.UserID, Status: string(b.Status), Odds: b.Odds, AdminUser: adminUser}
	if b.Stake != nil {
		ev.Stake = int64(*b.Stake)
	}
	if err := s.publ.PublishBetDecided(ctx, ev); err != nil {
		s.log.Warn("bet decided notify failed", zap.String("betId", b.ID), zap.Error(err))
	}
}

func (s *Server) notifyTxn(ctx context.Context, ev events.TransactionDecided) {
	if err := s.publ.PublishTransactionDecided(ctx, ev); err != nil {
		s.log.Warn("transaction notify failed", zap.String("txnId", ev.TransactionID), zap.Error(err))
	}
}

// fail traduz os erros do ledger pra status HTTP.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound), errors.Is(err, srepo.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, repo.ErrInvalidTransition),
		errors.Is(err, repo.ErrInsufficientFunds),
		errors.Is(err, repo.ErrBetLimits),
		errors.Is(err, repo.ErrIncompleteBet):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func decodePost(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}

func betResponse(b *repo.Bet) dto.BetResponse {
	resp := dto.BetResponse{
		BetID:           b.ID,
		UserID:          b.UserID,
		Status:          string(b.Status),
		Odds:            b.Odds,
		PotentialPayout: int64(b.PotentialPayout()),
	}
	if b.Stake != nil {
		v := int64(*b.Stake)
		resp.Stake = &v
	}
	return resp
}

func snapshotResponse(s *srepo.Snapshot) dto.SnapshotResponse {
	return dto.SnapshotResponse{
		SnapshotID:       s.ID,
		CreatedAt:        s.CreatedAt,
		UserCount:        s.UserCount,
		TransactionCount: s.TransactionCount,
		TotalVolume:      int64(s.TotalVolume),
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
