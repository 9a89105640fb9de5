// Package ethconfig resolves the command-line flags and TOML stage/peers
// file into the concrete values cmd/synclight wires into the split
// database, orchestrator, and remote store, per spec.md §6's Configuration
// table. Grounded on original_source/src/cli/sync.rs's Command struct and
// confy-loaded Config, reworked into kong flags plus go-toml/v2.
package ethconfig

import (
	"context"
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/erigontech/erigon-lib/common"
	log "github.com/erigontech/erigon-lib/log/v3"
	"github.com/erigontech/synclight/errs"
	"github.com/erigontech/synclight/remotestore"
	"github.com/pelletier/go-toml/v2"
)

// StageConfig is the TOML-loaded "stage/peers" file content from the
// `config` flag: tunables the stages themselves don't need a flag for.
// Grounded on original_source's Config{stages, peers} (confy-backed TOML).
type StageConfig struct {
	Stages StagesSection `toml:"stages"`
	Peers  PeersSection  `toml:"peers"`
}

type StagesSection struct {
	// CommitThreshold bounds how much RLP a single StateStage chunk
	// assembles before committing, e.g. "512MB". Zero means "use the
	// built-in default" (see DefaultCommitThreshold).
	CommitThreshold datasize.ByteSize `toml:"commit_threshold"`
	CodeCacheSize   int               `toml:"code_cache_size"`
}

type PeersSection struct {
	ConnectTrustedNodesOnly bool     `toml:"connect_trusted_nodes_only"`
	TrustedNodes            []string `toml:"trusted_nodes"`
}

// DefaultCommitThreshold matches erigon's own ExecuteBlockCfg default
// batch size order of magnitude.
const DefaultCommitThreshold = 256 * datasize.MB

// LoadStageConfig reads and parses the TOML file at path. A missing file
// is a ConfigError (fatal at startup per spec §7), not a silently-applied
// default, since the flag defaults to a path the operator is expected to
// have created.
func LoadStageConfig(path string) (*StageConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.ConfigError{Field: "config", Err: err}
	}
	var cfg StageConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, &errs.ConfigError{Field: "config", Err: err}
	}
	if cfg.Stages.CommitThreshold == 0 {
		cfg.Stages.CommitThreshold = DefaultCommitThreshold
	}
	if cfg.Stages.CodeCacheSize == 0 {
		cfg.Stages.CodeCacheSize = 4096
	}
	return &cfg, nil
}

// NetworkArgs is the subset of `network.*` flags spec.md §6 enumerates:
// trusted-only mode and a static trusted-peer list, merged into the
// TOML-loaded PeersSection the way original_source's init_trusted_nodes
// overlays CLI flags onto the confy-loaded Config.
type NetworkArgs struct {
	TrustedOnly   bool     `help:"Refuse connections from non-trusted peers." name:"trusted-only"`
	TrustedPeers  []string `help:"Enode URLs to treat as trusted, merged with the config file's list." name:"trusted-peers"`
}

// ApplyTo overlays n onto cfg.Peers in place, flags winning over the file
// the same way original_source's Command::init_trusted_nodes does.
func (n NetworkArgs) ApplyTo(cfg *StageConfig) {
	if n.TrustedOnly {
		cfg.Peers.ConnectTrustedNodesOnly = true
	}
	for _, peer := range n.TrustedPeers {
		cfg.Peers.TrustedNodes = append(cfg.Peers.TrustedNodes, peer)
	}
}

// S3Credentials names the environment variables spec.md §6's "Environment"
// paragraph requires: missing any of them aborts startup with a
// ConfigError.
type S3Credentials struct {
	AccessKeyID string
	SecretKey   string
	Region      string
	Bucket      string
}

// LoadS3Credentials reads the access key, secret, region, and bucket from
// the process environment, returning a ConfigError naming the first
// missing variable.
func LoadS3Credentials() (S3Credentials, error) {
	get := func(name string) (string, error) {
		v := os.Getenv(name)
		if v == "" {
			return "", &errs.ConfigError{Field: name, Err: errMissingEnv}
		}
		return v, nil
	}
	accessKey, err := get("SYNCLIGHT_S3_ACCESS_KEY_ID")
	if err != nil {
		return S3Credentials{}, err
	}
	secretKey, err := get("SYNCLIGHT_S3_SECRET_ACCESS_KEY")
	if err != nil {
		return S3Credentials{}, err
	}
	region, err := get("SYNCLIGHT_S3_REGION")
	if err != nil {
		return S3Credentials{}, err
	}
	bucket, err := get("SYNCLIGHT_S3_BUCKET")
	if err != nil {
		return S3Credentials{}, err
	}
	return S3Credentials{AccessKeyID: accessKey, SecretKey: secretKey, Region: region, Bucket: bucket}, nil
}

var errMissingEnv = missingEnvError{}

type missingEnvError struct{}

func (missingEnvError) Error() string { return "required environment variable not set" }

// OpenRemoteStore builds the S3-backed RemoteStore from creds without
// checking them again (LoadS3Credentials is where missing values are
// reported). The access key and secret are exported to the
// process environment under the AWS SDK's own variable names just before
// building the client, since aws-sdk-go-v2's default credential chain
// reads those specifically; this system's own operator-facing variable
// names stay prefixed to avoid colliding with an unrelated AWS_* value
// already in the environment.
func OpenRemoteStore(ctx context.Context, creds S3Credentials, logger log.Logger) (remotestore.Store, error) {
	os.Setenv("AWS_ACCESS_KEY_ID", creds.AccessKeyID)
	os.Setenv("AWS_SECRET_ACCESS_KEY", creds.SecretKey)
	return remotestore.NewS3Store(ctx, creds.Region, creds.Bucket, logger)
}

// DebugTip parses the `debug.tip` flag value into a common.Hash, per
// spec.md §6.
func DebugTip(s string) (common.Hash, error) {
	if s == "" {
		return common.Hash{}, nil
	}
	h, err := common.HexToHash(s)
	if err != nil {
		return common.Hash{}, &errs.ConfigError{Field: "debug.tip", Err: err}
	}
	return h, nil
}
