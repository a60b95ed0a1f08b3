package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/lundebo/buddy-bets/internal/settlement/engine"
	"github.com/lundebo/buddy-bets/internal/settlement/export"
	srepo "github.com/lundebo/buddy-bets/internal/settlement/repo"
	"github.com/lundebo/buddy-bets/internal/shared/config"
	"github.com/lundebo/buddy-bets/internal/shared/db"
	"github.com/lundebo/buddy-bets/internal/shared/logger"
)

// Ferramenta de linha de comando: imprime um snapshot de settlement como CSV.
// Sem -id, exporta o snapshot mais recente.
func main() {
	id := flag.String("id", "", "id do snapshot (default: o mais recente)")
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New("export-tool", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	tz, err := time.LoadLocation(cfg.SettlementTimezone)
	if err != nil {
		log.Fatal("load timezone", zap.Error(err))
	}

	store := srepo.NewPostgres(pg)
	ctx := context.Background()

	snapID := *id
	if snapID == "" {
		snaps, err := store.ListSnapshots(ctx, 1)
		if err != nil {
			log.Fatal("list snapshots", zap.Error(err))
		}
		if len(snaps) == 0 {
			log.Fatal("no snapshots stored")
		}
		snapID = snaps[0].ID
	}

	snap, err := store.GetSnapshot(ctx, snapID)
	if err != nil {
		log.Fatal("get snapshot", zap.String("id", snapID), zap.Error(err))
	}

	var result engine.Result
	if err := json.Unmarshal([]byte(snap.SettlementJSON), &result); err != nil {
		log.Fatal("decode snapshot payload", zap.Error(err))
	}

	fmt.Fprint(os.Stdout, export.CSV(result, snap.CreatedAt, tz))
}
