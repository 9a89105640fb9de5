package ethconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/c2h5oh/datasize"
	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/synclight/errs"
)

func TestLoadStageConfigAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "synclight.toml")
	if err := os.WriteFile(path, []byte("[stages]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadStageConfig(path)
	if err != nil {
		t.Fatalf("LoadStageConfig: %v", err)
	}
	if cfg.Stages.CommitThreshold != DefaultCommitThreshold {
		t.Fatalf("CommitThreshold = %v, want default %v", cfg.Stages.CommitThreshold, DefaultCommitThreshold)
	}
	if cfg.Stages.CodeCacheSize != 4096 {
		t.Fatalf("CodeCacheSize = %d, want default 4096", cfg.Stages.CodeCacheSize)
	}
}

func TestLoadStageConfigHonorsExplicitValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "synclight.toml")
	content := `
[stages]
commit_threshold = "512MB"
code_cache_size = 1024

[peers]
connect_trusted_nodes_only = true
trusted_nodes = ["enode://aaaa@127.0.0.1:30303"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadStageConfig(path)
	if err != nil {
		t.Fatalf("LoadStageConfig: %v", err)
	}
	if cfg.Stages.CommitThreshold != 512*datasize.MB {
		t.Fatalf("CommitThreshold = %v, want 512MB", cfg.Stages.CommitThreshold)
	}
	if cfg.Stages.CodeCacheSize != 1024 {
		t.Fatalf("CodeCacheSize = %d, want 1024", cfg.Stages.CodeCacheSize)
	}
	if !cfg.Peers.ConnectTrustedNodesOnly {
		t.Fatal("ConnectTrustedNodesOnly must be true")
	}
	if len(cfg.Peers.TrustedNodes) != 1 {
		t.Fatalf("TrustedNodes = %v, want 1 entry", cfg.Peers.TrustedNodes)
	}
}

func TestLoadStageConfigMissingFileIsConfigError(t *testing.T) {
	_, err := LoadStageConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
	var ce *errs.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v (%T), want *errs.ConfigError", err, err)
	}
}

func TestNetworkArgsApplyToMergesAndOverrides(t *testing.T) {
	cfg := &StageConfig{Peers: PeersSection{TrustedNodes: []string{"enode://file@peer"}}}
	args := NetworkArgs{TrustedOnly: true, TrustedPeers: []string{"enode://flag@peer"}}
	args.ApplyTo(cfg)

	if !cfg.Peers.ConnectTrustedNodesOnly {
		t.Fatal("TrustedOnly flag must set ConnectTrustedNodesOnly")
	}
	if len(cfg.Peers.TrustedNodes) != 2 {
		t.Fatalf("TrustedNodes = %v, want the file's entry plus the flag's entry", cfg.Peers.TrustedNodes)
	}
}

func TestLoadS3CredentialsMissingVariable(t *testing.T) {
	for _, name := range []string{
		"SYNCLIGHT_S3_ACCESS_KEY_ID", "SYNCLIGHT_S3_SECRET_ACCESS_KEY",
		"SYNCLIGHT_S3_REGION", "SYNCLIGHT_S3_BUCKET",
	} {
		os.Unsetenv(name)
	}
	if _, err := LoadS3Credentials(); err == nil {
		t.Fatal("expected a ConfigError when no S3 env vars are set")
	}
}

func TestLoadS3CredentialsAllPresent(t *testing.T) {
	vars := map[string]string{
		"SYNCLIGHT_S3_ACCESS_KEY_ID":     "AKIAEXAMPLE",
		"SYNCLIGHT_S3_SECRET_ACCESS_KEY": "secret",
		"SYNCLIGHT_S3_REGION":            "nyc3",
		"SYNCLIGHT_S3_BUCKET":            "synclight-snapshots",
	}
	for k, v := range vars {
		os.Setenv(k, v)
		defer os.Unsetenv(k)
	}

	creds, err := LoadS3Credentials()
	if err != nil {
		t.Fatalf("LoadS3Credentials: %v", err)
	}
	if creds.AccessKeyID != vars["SYNCLIGHT_S3_ACCESS_KEY_ID"] || creds.Bucket != vars["SYNCLIGHT_S3_BUCKET"] {
		t.Fatalf("creds = %+v, want values from env", creds)
	}
}

func TestDebugTipEmptyIsZeroHash(t *testing.T) {
	empty, err := DebugTip("")
	if err != nil {
		t.Fatalf("DebugTip(\"\"): %v", err)
	}
	if empty != (common.Hash{}) {
		t.Fatalf("DebugTip(\"\") = %s, want the zero hash", empty.String())
	}
}

func TestDebugTipParsesHash(t *testing.T) {
	h, err := DebugTip("0x0000000000000000000000000000000000000000000000000000000000002a")
	if err != nil {
		t.Fatalf("DebugTip: %v", err)
	}
	want := common.Hash{}
	want[31] = 0x2a
	if h != want {
		t.Fatalf("DebugTip = %s, want %s", h.String(), want.String())
	}
}

func TestDebugTipRejectsMalformed(t *testing.T) {
	if _, err := DebugTip("not-a-hash"); err == nil {
		t.Fatal("expected an error for a malformed debug.tip value")
	}
}
