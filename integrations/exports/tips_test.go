package exports

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tipfinity/core"
	"tipfinity/native/creator"
	"tipfinity/rpc"
)

type fakeSource struct {
	tips  []*creator.TipRecord
	calls int
}

func (f *fakeSource) Tips(creatorAddr [20]byte, offset, limit uint64) ([]core.IndexedTip, *creator.Creator, error) {
	f.calls++
	record := &creator.Creator{TipCount: uint64(len(f.tips))}
	var out []core.IndexedTip
	for seq := offset; seq < uint64(len(f.tips)) && uint64(len(out)) < limit; seq++ {
		out = append(out, core.IndexedTip{Address: creator.DeriveTipAddress(creatorAddr, seq), Tip: f.tips[seq]})
	}
	return out, record, nil
}

type failingSource struct{}

func (failingSource) Tips([20]byte, uint64, uint64) ([]core.IndexedTip, *creator.Creator, error) {
	return nil, nil, creator.ErrCreatorNotFound
}

func sampleRows() []TipRow {
	return []TipRow{
		{Creator: "tip1creator", Sequence: 0, Address: "tip1a", Tipper: "tip1b", Amount: 10, Timestamp: 1_700_000_000, TxHash: "0x01", Annotation: "gm <3"},
		{Creator: "tip1creator", Sequence: 1, Address: "tip1c", Tipper: "tip1d", Amount: 25, Timestamp: 1_700_000_060, TxHash: "0x02", Annotation: "second, with comma"},
	}
}

func TestCollectPagesThroughAllTips(t *testing.T) {
	creatorAddr := [20]byte{0x01}
	src := &fakeSource{}
	for i := 0; i < 2*core.MaxTipsPage+5; i++ {
		src.tips = append(src.tips, &creator.TipRecord{Creator: creatorAddr, Sequence: uint64(i), Amount: uint64(i + 1)})
	}
	rows, err := Collect(src, creatorAddr)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(rows) != len(src.tips) {
		t.Fatalf("rows = %d, want %d", len(rows), len(src.tips))
	}
	if src.calls != 3 {
		t.Fatalf("expected 3 pages, got %d", src.calls)
	}
	for i, row := range rows {
		if row.Sequence != uint64(i) {
			t.Fatalf("row %d out of order: %d", i, row.Sequence)
		}
	}
}

func TestCollectEmptyAndErrors(t *testing.T) {
	rows, err := Collect(&fakeSource{}, [20]byte{0x02})
	if err != nil || len(rows) != 0 {
		t.Fatalf("empty creator: %v %d", err, len(rows))
	}
	if _, err := Collect(failingSource{}, [20]byte{0x03}); !errors.Is(err, creator.ErrCreatorNotFound) {
		t.Fatalf("expected creator not found, got %v", err)
	}
}

func TestFromRPC(t *testing.T) {
	rows := FromRPC([]rpc.TipResult{{Creator: "c", Sequence: 3, Amount: 9, Annotation: "hi"}})
	if len(rows) != 1 || rows[0].Sequence != 3 || rows[0].Amount != 9 || rows[0].Annotation != "hi" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestTipsJSONL(t *testing.T) {
	data, checksum, err := TipsJSONL(sampleRows())
	if err != nil {
		t.Fatalf("jsonl: %v", err)
	}
	sum := sha256.Sum256(data)
	if checksum != hex.EncodeToString(sum[:]) {
		t.Fatalf("checksum mismatch")
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var first map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if first["annotation"] != "gm <3" || first["timestamp"] != "2023-11-14T22:13:20Z" {
		t.Fatalf("unexpected payload: %v", first)
	}
}

func TestTipsCSV(t *testing.T) {
	data, checksum, err := TipsCSV(sampleRows())
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if checksum == "" {
		t.Fatalf("expected checksum")
	}
	output := string(data)
	if !strings.HasPrefix(output, "creator,sequence,tip,tipper,amount,timestamp,tx_hash,annotation\n") {
		t.Fatalf("missing header: %s", output)
	}
	if !strings.Contains(output, `"second, with comma"`) {
		t.Fatalf("annotation not quoted: %s", output)
	}
}

func TestWriteTipsParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tips.parquet")
	checksum, err := WriteTipsParquet(path, sampleRows())
	if err != nil {
		t.Fatalf("parquet: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read parquet: %v", err)
	}
	magic := []byte("PAR1")
	if !bytes.HasPrefix(data, magic) || !bytes.HasSuffix(data, magic) {
		t.Fatalf("missing parquet magic")
	}
	sum := sha256.Sum256(data)
	if checksum != hex.EncodeToString(sum[:]) {
		t.Fatalf("checksum does not match file contents")
	}
}

func TestWriteTipsParquetRejectsOutOfRangeAmount(t *testing.T) {
	rows := []TipRow{{Amount: ^uint64(0)}}
	if _, err := WriteTipsParquet(filepath.Join(t.TempDir(), "bad.parquet"), rows); err == nil {
		t.Fatalf("expected range error")
	}
}
