package escrowd

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	t.Setenv("FUNDHAUS_JWT_SECRET", "test-secret")

	fs := flag.NewFlagSet("escrowd", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.DBPath != "fundhaus.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.JWTIssuer != "fundhaus" {
		t.Fatalf("expected default issuer, got %q", cfg.JWTIssuer)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("FUNDHAUS_JWT_SECRET", "test-secret")

	fs := flag.NewFlagSet("escrowd", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-addr", "127.0.0.1:9999", "-db", "/tmp/ledger.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9999" {
		t.Fatalf("expected addr override, got %q", cfg.Addr)
	}
	if cfg.DBPath != "/tmp/ledger.db" {
		t.Fatalf("expected db override, got %q", cfg.DBPath)
	}
}

func TestParseConfigRequiresSecret(t *testing.T) {
	t.Setenv("FUNDHAUS_JWT_SECRET", "")

	fs := flag.NewFlagSet("escrowd", flag.ContinueOnError)
	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected error without a jwt secret")
	}
}
