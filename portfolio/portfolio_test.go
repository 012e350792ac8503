package portfolio

import (
	"errors"
	"testing"
)

func TestSeedAndLoad(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := Seed(db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	symbols, err := Load(db, "bitmex-3")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"XBTUSDT", "XBTETH", "ETHUSDT"}
	if len(symbols) != len(want) {
		t.Fatalf("expected %d symbols, got %d", len(want), len(symbols))
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Fatalf("symbol %d: got %q want %q", i, symbols[i], want[i])
		}
	}

	if err := Seed(db); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	symbolsAgain, err := Load(db, "bitmex-3")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(symbolsAgain) != len(want) {
		t.Fatalf("seed is not idempotent: got %d symbols after reseed", len(symbolsAgain))
	}
}

func TestLoadUnknownPortfolio(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := Load(db, "does-not-exist"); !errors.Is(err, ErrPortfolioNotFound) {
		t.Fatalf("expected ErrPortfolioNotFound, got %v", err)
	}
}

func TestBuiltinPortfolioSizes(t *testing.T) {
	// Portfolio names mirror the original system's labels, which don't
	// always match the literal symbol count in its source lists.
	for name, want := range map[string]int{
		"bitmex-3":   3,
		"kraken-3":   3,
		"kraken-50":  50,
		"kraken-92":  85,
		"kraken-122": 115,
	} {
		if got := len(builtinPortfolios[name]); got != want {
			t.Fatalf("%s: expected %d symbols, got %d", name, want, got)
		}
	}
}
