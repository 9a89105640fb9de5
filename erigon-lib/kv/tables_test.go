package kv

import "testing"

// Every split environment must open exactly the tables it owns: the
// per-domain tables appear in exactly one of HeaderTables/BodyTables/
// StateTables, and the two shared bookkeeping tables appear in all three.
func TestSplitTablePartitioning(t *testing.T) {
	shared := map[string]bool{SyncStageProgress: true, DatabaseInfo: true}

	count := map[string]int{}
	for _, set := range [][]string{HeaderTables, BodyTables, StateTables} {
		for _, name := range set {
			count[name]++
		}
	}

	for _, name := range ChaindataTables {
		want := 1
		if shared[name] {
			want = 3
		}
		if count[name] != want {
			t.Errorf("table %s appears in %d split table sets, want %d", name, count[name], want)
		}
	}
}

func TestChaindataTablesCfgCoversEveryTable(t *testing.T) {
	for _, name := range ChaindataTables {
		if _, ok := ChaindataTablesCfg[name]; !ok {
			t.Errorf("ChaindataTablesCfg is missing an entry for %s", name)
		}
	}
}

func TestPlainStorageStateIsDupSorted(t *testing.T) {
	if ChaindataTablesCfg[PlainStorageState].Flags&DupSort == 0 {
		t.Fatal("PlainStorageState must be dup-sorted so storage rows for one account+incarnation stay grouped")
	}
	for _, name := range ChaindataTables {
		if name == PlainStorageState {
			continue
		}
		if ChaindataTablesCfg[name].Flags&DupSort != 0 {
			t.Errorf("table %s is unexpectedly dup-sorted", name)
		}
	}
}
