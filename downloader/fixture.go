package downloader

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/synclight/core/types"
	"github.com/erigontech/synclight/errs"
)

// LocalDownloader satisfies both HeaderDownloader and BodyDownloader by
// replaying a directory of pre-fetched block fixtures instead of speaking
// devp2p: the network stack itself is an out-of-scope external
// collaborator (spec.md §1), so this is the stand-in that lets
// cmd/synclight run end to end against recorded blocks (e.g. in CI, or
// while iterating on the stages locally) rather than leaving the binary
// unable to do anything without a real P2P client plugged in.
type LocalDownloader struct {
	Dir string
}

// blockFixture is this package's own on-disk shape for a recorded block;
// it is not a wire format, just a convenient JSON rendering of
// types.Block's header fields and transactions.
type blockFixture struct {
	Number      uint64              `json:"number"`
	ParentHash  common.Hash         `json:"parentHash"`
	UncleHash   common.Hash         `json:"uncleHash"`
	Coinbase    common.Address      `json:"coinbase"`
	StateRoot   common.Hash         `json:"stateRoot"`
	TxRoot      common.Hash         `json:"txRoot"`
	ReceiptRoot common.Hash         `json:"receiptRoot"`
	Bloom       hexBytesFixture     `json:"bloom"`
	Difficulty  string              `json:"difficulty"`
	GasLimit    uint64              `json:"gasLimit"`
	GasUsed     uint64              `json:"gasUsed"`
	Time        uint64              `json:"time"`
	Extra       hexBytesFixture     `json:"extra"`
	MixDigest   common.Hash         `json:"mixDigest"`
	Nonce       uint64              `json:"nonce"`
	Txs         []txFixture         `json:"transactions"`
	Ommers      []json.RawMessage   `json:"ommers"`
	Withdrawals []json.RawMessage   `json:"withdrawals"`
}

type txFixture struct {
	Nonce    uint64          `json:"nonce"`
	GasPrice string          `json:"gasPrice"`
	Gas      uint64          `json:"gas"`
	To       *common.Address `json:"to"`
	Value    string          `json:"value"`
	Data     hexBytesFixture `json:"data"`
	V        string          `json:"v"`
	R        string          `json:"r"`
	S        string          `json:"s"`
}

type hexBytesFixture []byte

func (h *hexBytesFixture) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		*h = nil
		return nil
	}
	b, err := decodeHex(s)
	if err != nil {
		return err
	}
	*h = b
	return nil
}

func decodeHex(s string) ([]byte, error) {
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}

func bigFromDecimalOrHex(s string) *big.Int {
	v := new(big.Int)
	if strings.HasPrefix(s, "0x") {
		v.SetString(s[2:], 16)
	} else {
		v.SetString(s, 10)
	}
	return v
}

func (f *blockFixture) toHeader() *types.Header {
	return &types.Header{
		ParentHash:  f.ParentHash,
		UncleHash:   f.UncleHash,
		Coinbase:    f.Coinbase,
		StateRoot:   f.StateRoot,
		TxRoot:      f.TxRoot,
		ReceiptRoot: f.ReceiptRoot,
		Bloom:       f.Bloom,
		Difficulty:  bigFromDecimalOrHex(f.Difficulty),
		Number:      f.Number,
		GasLimit:    f.GasLimit,
		GasUsed:     f.GasUsed,
		Time:        f.Time,
		Extra:       f.Extra,
		MixDigest:   f.MixDigest,
		Nonce:       f.Nonce,
	}
}

func (f *blockFixture) toTxs() []*types.Transaction {
	txs := make([]*types.Transaction, len(f.Txs))
	for i, t := range f.Txs {
		txs[i] = &types.Transaction{
			Nonce:    t.Nonce,
			GasPrice: bigFromDecimalOrHex(t.GasPrice),
			Gas:      t.Gas,
			To:       t.To,
			Value:    bigFromDecimalOrHex(t.Value),
			Data:     t.Data,
			V:        bigFromDecimalOrHex(t.V),
			R:        bigFromDecimalOrHex(t.R),
			S:        bigFromDecimalOrHex(t.S),
		}
	}
	return txs
}

// loadAll reads and number-sorts every fixture file in Dir.
func (d *LocalDownloader) loadAll() ([]*blockFixture, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil, fmt.Errorf("fixture downloader: read dir %s: %w", d.Dir, err)
	}
	var blocks []*blockFixture
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(d.Dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var f blockFixture
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("fixture downloader: parse %s: %w", e.Name(), err)
		}
		blocks = append(blocks, &f)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Number < blocks[j].Number })
	return blocks, nil
}

// DownloadHeaders streams every fixture header with number > gap.LocalHeadNumber,
// in ascending order. A real reverse-header downloader walks tip-to-gap
// instead; fixtures are pre-validated and already contiguous, so there is
// no gap-closing search to perform.
func (d *LocalDownloader) DownloadHeaders(ctx context.Context, gap SyncGap) (<-chan *types.Header, <-chan error) {
	headers := make(chan *types.Header)
	errc := make(chan error, 1)
	go func() {
		defer close(headers)
		defer close(errc)
		blocks, err := d.loadAll()
		if err != nil {
			errc <- err
			return
		}
		for _, b := range blocks {
			if b.Number <= gap.LocalHeadNumber {
				continue
			}
			select {
			case headers <- b.toHeader():
			case <-ctx.Done():
				errc <- &errs.NetworkError{Op: "fixture downloader: headers", Err: ctx.Err()}
				return
			}
		}
	}()
	return headers, errc
}

// DownloadBodies streams the fixture body for each requested header, in
// the order given, failing if a fixture is missing for a requested
// number. Only transactions are filled in: a fixture's ommers and
// withdrawals entries are not decoded, so every block leaves with none.
func (d *LocalDownloader) DownloadBodies(ctx context.Context, headers []*types.Header) (<-chan *types.Block, <-chan error) {
	blocksOut := make(chan *types.Block)
	errc := make(chan error, 1)
	go func() {
		defer close(blocksOut)
		defer close(errc)
		all, err := d.loadAll()
		if err != nil {
			errc <- err
			return
		}
		byNumber := make(map[uint64]*blockFixture, len(all))
		for _, b := range all {
			byNumber[b.Number] = b
		}
		for _, h := range headers {
			f, ok := byNumber[h.Number]
			if !ok {
				errc <- &errs.NetworkError{Op: "fixture downloader: bodies", Err: fmt.Errorf("no fixture for block %d", h.Number)}
				return
			}
			blk := &types.Block{Header: h, Txs: f.toTxs()}
			select {
			case blocksOut <- blk:
			case <-ctx.Done():
				errc <- &errs.NetworkError{Op: "fixture downloader: bodies", Err: ctx.Err()}
				return
			}
		}
	}()
	return blocksOut, errc
}
