package store

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"quiver/internal/domain"
)

// AppendTransactionsCSV appends the transaction log to a human-readable
// CSV file, one transaction per line. The header is written only when the
// file is new or empty; subsequent runs append below it.
func AppendTransactionsCSV(path string, txns []domain.Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening transaction log %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	if info.Size() == 0 {
		return gocsv.MarshalFile(&txns, f)
	}
	return gocsv.MarshalWithoutHeaders(&txns, f)
}

// ReadTransactionsCSV reads a transaction log written by
// AppendTransactionsCSV.
func ReadTransactionsCSV(path string) ([]domain.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var txns []domain.Transaction
	if err := gocsv.UnmarshalFile(f, &txns); err != nil {
		return nil, fmt.Errorf("parsing transaction log %s: %w", path, err)
	}
	return txns, nil
}
