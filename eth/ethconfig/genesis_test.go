package ethconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadChainSpecNamedChain(t *testing.T) {
	g, err := LoadChainSpec("MainNet") // name matching must be case-insensitive
	if err != nil {
		t.Fatalf("LoadChainSpec: %v", err)
	}
	if g.Config.ChainID.Int64() != 1 {
		t.Fatalf("ChainID = %v, want 1", g.Config.ChainID)
	}
	if len(g.Alloc) != 0 {
		t.Fatalf("mainnet preset must be allocation-free, got %d entries", len(g.Alloc))
	}
}

func TestLoadChainSpecGenesisFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "genesis.json")
	content := `{
		"config": {"chainId": 1337, "homesteadBlock": 0, "eip158Block": 10},
		"nonce": "0x42",
		"timestamp": "0x0",
		"extraData": "0x1234",
		"gasLimit": "0x47b760",
		"difficulty": "0x400",
		"alloc": {
			"0x00000000000000000000000000000000000001": {"balance": "1000"},
			"0x00000000000000000000000000000000000002": {"balance": "0x10", "nonce": "0x1"}
		}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write genesis file: %v", err)
	}

	g, err := LoadChainSpec(path)
	if err != nil {
		t.Fatalf("LoadChainSpec: %v", err)
	}
	if g.Config.ChainID.Int64() != 1337 {
		t.Fatalf("ChainID = %v, want 1337", g.Config.ChainID)
	}
	if !g.Config.IsSpuriousDragon(10) || g.Config.IsSpuriousDragon(9) {
		t.Fatal("SpuriousDragonBlock must come from eip158Block")
	}
	if g.Nonce != 0x42 {
		t.Fatalf("Nonce = %d, want 0x42", g.Nonce)
	}
	if len(g.ExtraData) != 2 || g.ExtraData[0] != 0x12 || g.ExtraData[1] != 0x34 {
		t.Fatalf("ExtraData = %x, want 1234", g.ExtraData)
	}
	if len(g.Alloc) != 2 {
		t.Fatalf("Alloc has %d entries, want 2", len(g.Alloc))
	}
	for addr, acc := range g.Alloc {
		if addr.String() == "0x0000000000000000000000000000000000000001" && acc.Balance.Int64() != 1000 {
			t.Fatalf("decimal balance = %v, want 1000", acc.Balance)
		}
		if addr.String() == "0x0000000000000000000000000000000000000002" {
			if acc.Balance.Int64() != 16 {
				t.Fatalf("hex balance = %v, want 16", acc.Balance)
			}
			if acc.Nonce != 1 {
				t.Fatalf("nonce = %d, want 1", acc.Nonce)
			}
		}
	}
}

func TestLoadChainSpecRejectsUnknownNameAndMissingFile(t *testing.T) {
	if _, err := LoadChainSpec("not-a-real-chain-or-path"); err == nil {
		t.Fatal("expected an error for a name that is neither a known chain nor a readable file")
	}
}

func TestLoadChainSpecRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadChainSpec(path); err == nil {
		t.Fatal("expected an error for malformed genesis JSON")
	}
}

func TestParseHexOrDecimal(t *testing.T) {
	v, err := parseHexOrDecimal("0x2a")
	if err != nil || v.Int64() != 42 {
		t.Fatalf("parseHexOrDecimal(0x2a) = %v, %v; want 42, nil", v, err)
	}
	v, err = parseHexOrDecimal("42")
	if err != nil || v.Int64() != 42 {
		t.Fatalf("parseHexOrDecimal(42) = %v, %v; want 42, nil", v, err)
	}
	if _, err := parseHexOrDecimal("not-a-number"); err == nil {
		t.Fatal("expected an error for a non-numeric quantity")
	}
}
