package main

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// writeCSV marshals rows to path via gocsv, matching the csv struct tags
// declared on internal/models' DTOs.
func writeCSV[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	return nil
}
