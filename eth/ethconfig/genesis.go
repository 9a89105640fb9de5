package ethconfig

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/erigontech/erigon-lib/chain"
	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/synclight/errs"
)

// namedChains are the chain presets the `chain` flag accepts by name,
// mirroring original_source's genesis_value_parser accepting "mainnet" (or
// a path) for the same flag. Only mainnet's genesis is carried here: the
// other networks original_source knew about (goerli, sepolia) are loaded
// from a genesis JSON file instead, same as any custom chain.
var namedChains = map[string]func() *chain.Genesis{
	"mainnet": mainnetGenesis,
}

// LoadChainSpec resolves the `chain` configuration value into a
// chain.Genesis: either one of namedChains, or a path to a genesis JSON
// file in the go-ethereum `geth --genesis` shape (config/nonce/timestamp/
// extraData/gasLimit/difficulty/mixHash/parentHash/number/alloc).
func LoadChainSpec(value string) (*chain.Genesis, error) {
	if build, ok := namedChains[strings.ToLower(value)]; ok {
		return build(), nil
	}

	data, err := os.ReadFile(value)
	if err != nil {
		return nil, &errs.ConfigError{Field: "chain", Err: fmt.Errorf("not a known chain name and not a readable file: %w", err)}
	}
	var g genesisJSON
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, &errs.ConfigError{Field: "chain", Err: fmt.Errorf("parse genesis file %s: %w", value, err)}
	}
	return g.toGenesis(), nil
}

// genesisJSON mirrors the fields of a go-ethereum genesis.json this system
// actually needs; anything else (e.g. clique/ethash config knobs) is
// ignored since the executor, not this package, interprets consensus
// parameters.
type genesisJSON struct {
	Config     genesisConfigJSON              `json:"config"`
	Nonce      hexUint64                      `json:"nonce"`
	Timestamp  hexUint64                      `json:"timestamp"`
	ExtraData  hexBytes                       `json:"extraData"`
	GasLimit   hexUint64                      `json:"gasLimit"`
	Difficulty hexBig                         `json:"difficulty"`
	MixHash    common.Hash                    `json:"mixHash"`
	ParentHash common.Hash                    `json:"parentHash"`
	Number     hexUint64                      `json:"number"`
	Alloc      map[common.Address]allocEntry  `json:"alloc"`
}

type genesisConfigJSON struct {
	ChainID             *big.Int `json:"chainId"`
	HomesteadBlock      *big.Int `json:"homesteadBlock"`
	EIP150Block         *big.Int `json:"eip150Block"`
	EIP155Block         *big.Int `json:"eip155Block"`
	EIP158Block         *big.Int `json:"eip158Block"` // EIP-158 == SpuriousDragon
	ByzantiumBlock      *big.Int `json:"byzantiumBlock"`
}

type allocEntry struct {
	Balance hexBig                 `json:"balance"`
	Nonce   hexUint64              `json:"nonce"`
	Code    hexBytes                `json:"code"`
	Storage map[common.Hash]common.Hash `json:"storage"`
}

func (g *genesisJSON) toGenesis() *chain.Genesis {
	alloc := make(map[common.Address]chain.GenesisAccount, len(g.Alloc))
	for addr, a := range g.Alloc {
		bal := (*big.Int)(&a.Balance)
		if bal == nil {
			bal = big.NewInt(0)
		}
		alloc[addr] = chain.GenesisAccount{
			Balance: bal,
			Nonce:   uint64(a.Nonce),
			Code:    a.Code,
			Storage: a.Storage,
		}
	}

	diff := (*big.Int)(&g.Difficulty)
	if diff == nil {
		diff = big.NewInt(0)
	}

	return &chain.Genesis{
		Config: &chain.Config{
			ChainID:             g.Config.ChainID,
			HomesteadBlock:      g.Config.HomesteadBlock,
			EIP150Block:         g.Config.EIP150Block,
			EIP155Block:         g.Config.EIP155Block,
			SpuriousDragonBlock: g.Config.EIP158Block,
			ByzantiumBlock:      g.Config.ByzantiumBlock,
		},
		Number:     uint64(g.Number),
		ParentHash: g.ParentHash,
		Timestamp:  uint64(g.Timestamp),
		Difficulty: diff,
		GasLimit:   uint64(g.GasLimit),
		ExtraData:  g.ExtraData,
		Nonce:      uint64(g.Nonce),
		MixHash:    g.MixHash,
		Alloc:      alloc,
	}
}

// mainnetGenesis is Ethereum mainnet's block 0: the well-known
// allocation-free genesis header fields (the real 8893-account DAO-era
// allocation is out of scope for a light-sync fixture; callers wanting a
// funded chain use a genesis JSON file instead).
func mainnetGenesis() *chain.Genesis {
	return &chain.Genesis{
		Config: &chain.Config{
			ChainName:           "mainnet",
			ChainID:             big.NewInt(1),
			HomesteadBlock:      big.NewInt(1_150_000),
			EIP150Block:         big.NewInt(2_463_000),
			EIP155Block:         big.NewInt(2_675_000),
			SpuriousDragonBlock: big.NewInt(2_675_000),
			ByzantiumBlock:      big.NewInt(4_370_000),
		},
		Number:     0,
		Timestamp:  0,
		Difficulty: big.NewInt(17_179_869_184),
		GasLimit:   5000,
		Nonce:      0x42,
		MixHash:    common.Hash{},
		Alloc:      map[common.Address]chain.GenesisAccount{},
	}
}

// hexUint64 / hexBig / hexBytes unmarshal the "0x..."-quantity encoding
// geth genesis files use, the JSON counterpart of common.HexToHash.
type hexUint64 uint64

func (h *hexUint64) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*h = 0
		return nil
	}
	v, err := parseHexOrDecimal(s)
	if err != nil {
		return err
	}
	*h = hexUint64(v.Uint64())
	return nil
}

type hexBig big.Int

func (h *hexBig) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*h = hexBig(*big.NewInt(0))
		return nil
	}
	v, err := parseHexOrDecimal(s)
	if err != nil {
		return err
	}
	*h = hexBig(*v)
	return nil
}

type hexBytes []byte

func (h *hexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("ethconfig: decode hex bytes %q: %w", s, err)
	}
	*h = b
	return nil
}

func parseHexOrDecimal(s string) (*big.Int, error) {
	v := new(big.Int)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if _, ok := v.SetString(s[2:], 16); !ok {
			return nil, fmt.Errorf("ethconfig: invalid hex quantity %q", s)
		}
		return v, nil
	}
	if _, ok := v.SetString(s, 10); !ok {
		return nil, fmt.Errorf("ethconfig: invalid decimal quantity %q", s)
	}
	return v, nil
}
