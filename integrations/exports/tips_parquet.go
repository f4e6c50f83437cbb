package exports

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type parquetTip struct {
	Creator    string `parquet:"name=creator, type=BYTE_ARRAY, convertedtype=UTF8"`
	Sequence   int64  `parquet:"name=sequence, type=INT64"`
	Tip        string `parquet:"name=tip, type=BYTE_ARRAY, convertedtype=UTF8"`
	Tipper     string `parquet:"name=tipper, type=BYTE_ARRAY, convertedtype=UTF8"`
	Amount     int64  `parquet:"name=amount, type=INT64"`
	Timestamp  int64  `parquet:"name=timestamp, type=INT64"`
	TxHash     string `parquet:"name=tx_hash, type=BYTE_ARRAY, convertedtype=UTF8"`
	Annotation string `parquet:"name=annotation, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// WriteTipsParquet writes rows as a snappy-compressed Parquet file at path and
// returns the SHA-256 checksum of the written file. Sequence and amount are
// stored as INT64; values above math.MaxInt64 are rejected.
func WriteTipsParquet(path string, rows []TipRow) (string, error) {
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("exports: create parquet: %w", err)
	}
	hasher := sha256.New()
	fw := writerfile.NewWriterFile(io.MultiWriter(file, hasher))
	pw, err := writer.NewParquetWriter(fw, new(parquetTip), 1)
	if err != nil {
		file.Close()
		return "", fmt.Errorf("exports: parquet schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		if int64(row.Amount) < 0 || int64(row.Sequence) < 0 {
			pw.WriteStop()
			file.Close()
			return "", fmt.Errorf("exports: tip %d exceeds parquet INT64 range", row.Sequence)
		}
		pr := &parquetTip{
			Creator:    row.Creator,
			Sequence:   int64(row.Sequence),
			Tip:        row.Address,
			Tipper:     row.Tipper,
			Amount:     int64(row.Amount),
			Timestamp:  row.Timestamp,
			TxHash:     row.TxHash,
			Annotation: row.Annotation,
		}
		if err := pw.Write(pr); err != nil {
			pw.WriteStop()
			file.Close()
			return "", fmt.Errorf("exports: parquet write: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		file.Close()
		return "", fmt.Errorf("exports: parquet flush: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("exports: close parquet file: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
