package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RimaChaieb/tuniguard-api/internal/catalog"
	"github.com/RimaChaieb/tuniguard-api/internal/intel"
	"github.com/RimaChaieb/tuniguard-api/internal/scan"
	"github.com/RimaChaieb/tuniguard-api/internal/store"
	"github.com/RimaChaieb/tuniguard-api/internal/users"
)

func TestMemory_RollbackDiscardsStagedWrites(t *testing.T) {
	mem := store.NewMemory()
	mem.AddEntries(catalog.DefaultEntries()...)
	u := mem.AddUser(users.User{Username: "sami", Region: "Tunis"})

	boom := errors.New("boom")
	err := mem.WithinTx(context.Background(), func(ctx context.Context, tx scan.Tx) error {
		if err := tx.IncrementDetection(ctx, 1); err != nil {
			return err
		}
		if err := tx.InsertScan(ctx, &scan.Scan{UserID: u.ID, DetectionScore: 80, Timestamp: time.Now()}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if len(mem.Scans()) != 0 {
		t.Error("scan survived rollback")
	}
	if mem.Entries()[0].DetectionCount != 0 {
		t.Error("detection count survived rollback")
	}
}

func TestMemory_DuplicateIntelKeyConflicts(t *testing.T) {
	mem := store.NewMemory()
	day := intel.Day(time.Now())
	rec := intel.Record{ThreatID: 3, SourceRegion: "Sfax", ReportedDay: day}
	mem.AddIntel(rec)

	err := mem.WithinTx(context.Background(), func(ctx context.Context, tx scan.Tx) error {
		dup := rec
		return tx.InsertIntel(ctx, &dup)
	})
	if !errors.Is(err, scan.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestMemory_RecentScoresNewestFirst(t *testing.T) {
	mem := store.NewMemory()
	u := mem.AddUser(users.User{Username: "lina"})
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	err := mem.WithinTx(context.Background(), func(ctx context.Context, tx scan.Tx) error {
		for i, score := range []float64{10, 20, 30} {
			s := &scan.Scan{UserID: u.ID, DetectionScore: score, Timestamp: base.Add(time.Duration(i) * time.Minute)}
			if err := tx.InsertScan(ctx, s); err != nil {
				return err
			}
		}
		got, err := tx.RecentScores(ctx, u.ID, 2)
		if err != nil {
			return err
		}
		if len(got) != 2 || got[0] != 30 || got[1] != 20 {
			t.Errorf("RecentScores = %v, want [30 20]", got)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMemory_LockUserMissing(t *testing.T) {
	mem := store.NewMemory()
	err := mem.WithinTx(context.Background(), func(ctx context.Context, tx scan.Tx) error {
		_, err := tx.LockUser(ctx, 7)
		return err
	})
	if !errors.Is(err, users.ErrNotFound) {
		t.Errorf("err = %v, want users.ErrNotFound", err)
	}
}
