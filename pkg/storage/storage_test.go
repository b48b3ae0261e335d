package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pyrowatch/pyrowatch/pkg/catalog"
	"github.com/pyrowatch/pyrowatch/pkg/reconcile"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "state.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadStockEmpty(t *testing.T) {
	db := openTestDB(t)
	stock, err := db.LoadStock(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(stock) != 0 {
		t.Fatalf("fresh database should have empty stock, got %v", stock)
	}
}

func TestApplyCycleRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	items := map[string]catalog.Item{
		"Dum Bum P1": {Title: "Dum Bum P1", Stock: "In Stock", Link: "https://shop/1", Family: "Dum Bum", Brand: "Dum Bum", Price: "4 €"},
		"Viper M100": {Title: "Viper M100", Stock: "Sold Out", Link: "https://shop/2", Family: "Viper", Brand: "Viper", Price: "2 €"},
	}
	changes := []reconcile.Change{
		{Kind: reconcile.KindNew, Title: "Dum Bum P1", Current: "In Stock", Link: "https://shop/1"},
		{Kind: reconcile.KindNew, Title: "Viper M100", Current: "Sold Out", Link: "https://shop/2"},
	}
	if err := db.ApplyCycle(ctx, items, changes); err != nil {
		t.Fatal(err)
	}

	stock, err := db.LoadStock(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stock["Dum Bum P1"] != "In Stock" || stock["Viper M100"] != "Sold Out" {
		t.Fatalf("stock round trip failed: %v", stock)
	}
}

func TestApplyCyclePrunesAbsentTitles(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first := map[string]catalog.Item{
		"A": {Title: "A", Stock: "In Stock", Family: "Other"},
		"B": {Title: "B", Stock: "In Stock", Family: "Other"},
	}
	if err := db.ApplyCycle(ctx, first, nil); err != nil {
		t.Fatal(err)
	}

	second := map[string]catalog.Item{
		"A": {Title: "A", Stock: "Sold Out", Family: "Other"},
	}
	if err := db.ApplyCycle(ctx, second, nil); err != nil {
		t.Fatal(err)
	}

	stock, err := db.LoadStock(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := stock["B"]; ok {
		t.Error("title absent from the cycle should be pruned")
	}
	if stock["A"] != "Sold Out" {
		t.Errorf("stock[A] = %q, want updated text", stock["A"])
	}
}

func TestChangeHistory(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	changes := []reconcile.Change{
		{Kind: reconcile.KindSoldOut, Title: "A", Previous: "In Stock", Current: "Sold Out", Link: "https://shop/a"},
		{Kind: reconcile.KindRestocked, Title: "B", Previous: "Sold Out", Current: "In Stock"},
	}
	if err := db.ApplyCycle(ctx, nil, changes); err != nil {
		t.Fatal(err)
	}

	recent, err := db.ListRecentChanges(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	// Newest first.
	if recent[0].Kind != string(reconcile.KindRestocked) {
		t.Errorf("first record = %q, want restocked", recent[0].Kind)
	}
	if recent[1].Previous != "In Stock" || recent[1].Current != "Sold Out" {
		t.Errorf("record texts wrong: %+v", recent[1])
	}

	since, err := db.ListChangesSince(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(since) != 2 {
		t.Errorf("ListChangesSince = %d records, want 2", len(since))
	}
	future, err := db.ListChangesSince(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(future) != 0 {
		t.Errorf("future cutoff returned %d records", len(future))
	}
}

func TestMessageIDs(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.MessageID(ctx, "Dum Bum", 1)
	if err != nil {
		t.Fatal(err)
	}
	if id != "" {
		t.Fatalf("expected empty ID before storing, got %q", id)
	}

	if err := db.SetMessageID(ctx, "Dum Bum", 1, "111"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMessageID(ctx, "Dum Bum", 2, "222"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMessageID(ctx, "Dum Bum", 1, "333"); err != nil {
		t.Fatal(err)
	}

	id, err = db.MessageID(ctx, "Dum Bum", 1)
	if err != nil {
		t.Fatal(err)
	}
	if id != "333" {
		t.Errorf("MessageID = %q, want replacement 333", id)
	}

	parts, err := db.MessageParts(ctx, "Dum Bum")
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 2 || parts[1] != "333" || parts[2] != "222" {
		t.Errorf("MessageParts = %v", parts)
	}

	other, err := db.MessageParts(ctx, "Viper")
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 0 {
		t.Errorf("unrelated family has parts: %v", other)
	}
}

func TestOpenOrResetMovesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.sqlite")
	if err := os.WriteFile(path, []byte("this is not a sqlite database at all, definitely not"), 0o644); err != nil {
		t.Fatal(err)
	}

	db, reset, err := OpenOrReset(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if !reset {
		t.Error("expected reset flag for corrupt file")
	}
	if _, err := os.Stat(path + ".corrupt"); err != nil {
		t.Errorf("corrupt file not moved aside: %v", err)
	}

	stock, err := db.LoadStock(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(stock) != 0 {
		t.Errorf("reset baseline should be empty, got %v", stock)
	}
}

func TestOpenOrResetFreshFile(t *testing.T) {
	db, reset, err := OpenOrReset(filepath.Join(t.TempDir(), "state.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if reset {
		t.Error("missing file is first run, not corruption")
	}
}
