// Copyright 2021 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package kv

import (
	"sort"
	"strings"
)

// Headers database tables.
const (
	// CanonicalHeaders: block_num_u64 -> header hash
	CanonicalHeaders = "CanonicalHeaders"
	// Headers: block_num_u64 + hash -> header (RLP)
	Headers = "Headers"
	// HeaderTD: block_num_u64 + hash -> total difficulty (RLP big.Int)
	HeaderTD = "HeaderTD"
)

// Bodies database tables.
const (
	// BlockBody: block_num_u64 + hash -> StoredBlockBody (base tx id, tx count, has-ommers and has-withdrawals flags)
	BlockBody = "BlockBody"
	// Transactions: tx_id_u64 -> rlp(transaction)
	Transactions = "Transactions"
	// Ommers: block_num_u64 + hash -> rlp([]Header)
	Ommers = "Ommers"
	// Withdrawals: block_num_u64 + hash -> rlp([]Withdrawal)
	Withdrawals = "Withdrawals"
)

// State database tables.
const (
	// PlainAccountState: address -> account encoded for storage
	PlainAccountState = "PlainAccountState"
	// PlainStorageState: address+incarnation -> storage key+value (dup-sorted by key)
	PlainStorageState = "PlainStorageState"
	// Bytecodes: code hash -> contract bytecode
	Bytecodes = "Bytecodes"
)

// SyncStageProgress: stage id (string) -> block_num_u64, shared across the
// three split environments so each keeps its own stage's progress marker.
const SyncStageProgress = "SyncStage"

// DatabaseInfo is a table present in all three environments; nothing in
// this module reads or writes it (genesis mismatches are detected through
// CanonicalHeaders instead).
const DatabaseInfo = "DbInfo"

// ChaindataTables lists every table name across the three split
// environments; reinit sorts it and gives every listed table a
// ChaindataTablesCfg entry.
var ChaindataTables = []string{
	CanonicalHeaders, Headers, HeaderTD,
	BlockBody, Transactions, Ommers, Withdrawals,
	PlainAccountState, PlainStorageState, Bytecodes,
	SyncStageProgress, DatabaseInfo,
}

// HeaderTables / BodyTables / StateTables partition ChaindataTables by which
// of the three split environments (the headers/, bodies/ and state/ directories)
// owns them; SplitDatabase uses these to open each environment with only
// its own tables.
var (
	HeaderTables = []string{CanonicalHeaders, Headers, HeaderTD, SyncStageProgress, DatabaseInfo}
	BodyTables   = []string{BlockBody, Transactions, Ommers, Withdrawals, SyncStageProgress, DatabaseInfo}
	StateTables  = []string{PlainAccountState, PlainStorageState, Bytecodes, SyncStageProgress, DatabaseInfo}
)

type TableCfg map[string]TableCfgItem

type TableFlags uint

const (
	Default    TableFlags = 0x00
	DupSort    TableFlags = 0x04
	IntegerKey TableFlags = 0x08
)

type TableCfgItem struct {
	Flags TableFlags
}

// ChaindataTablesCfg mirrors erigon's per-table flag map: every table is a
// plain sorted-duplicate-free B-tree except PlainStorageState, which is
// dup-sorted on (address+incarnation) so every account's storage rows live
// together and can be wiped by prefix-deleting the dup-group.
var ChaindataTablesCfg = TableCfg{
	PlainStorageState: {Flags: DupSort},
}

func sortBuckets() {
	sort.SliceStable(ChaindataTables, func(i, j int) bool {
		return strings.Compare(ChaindataTables[i], ChaindataTables[j]) < 0
	})
}

func init() {
	reinit()
}

func reinit() {
	sortBuckets()
	for _, name := range ChaindataTables {
		if _, ok := ChaindataTablesCfg[name]; !ok {
			ChaindataTablesCfg[name] = TableCfgItem{}
		}
	}
}
