// Package table reads and writes the library as a header-plus-rows CSV file.
// Column order is the EnrichedRecord field order; text is UTF-8.
package table

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/albapepper/steam-ledger/internal/provider"
)

// DefaultFile is the output file name used when none is configured.
const DefaultFile = "steam_games_data.csv"

// Header is the column layout of the file.
var Header = []string{
	"name",
	"item_id",
	"playtime_hours",
	"price",
	"release_date",
	"developer",
	"publisher",
	"genres",
	"achievements_gained",
	"achievements_total",
}

// ErrBadHeader is returned when a file's header does not match Header.
var ErrBadHeader = errors.New("unexpected table header")

// Write encodes records with a header row.
func Write(w io.Writer, records []provider.EnrichedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("write row %d: %w", r.ItemID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes records to path, replacing any existing file. The table is
// written to a temporary file in the same directory and renamed over path, so
// readers see either the previous table or the new one.
func WriteFile(path string, records []provider.EnrichedRecord) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	tmp := f.Name()
	defer os.Remove(tmp) // no-op once renamed

	bw := bufio.NewWriter(f)
	if err := Write(bw, records); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Read decodes a file produced by Write.
func Read(r io.Reader) ([]provider.EnrichedRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("read header: %w", ErrBadHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var records []provider.EnrichedRecord
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		rec, err := parseRow(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadFile reads the table at path.
func ReadFile(path string) ([]provider.EnrichedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(bufio.NewReader(f))
}

func checkHeader(header []string) error {
	if len(header) > 0 {
		// Tolerate a UTF-8 byte order mark written by spreadsheet tools.
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i, name := range Header {
		if header[i] != name {
			return fmt.Errorf("column %d is %q, want %q: %w", i+1, header[i], name, ErrBadHeader)
		}
	}
	return nil
}

func row(r provider.EnrichedRecord) []string {
	return []string{
		r.Name,
		strconv.Itoa(r.ItemID),
		strconv.FormatFloat(r.PlaytimeHours, 'f', -1, 64),
		r.Price,
		r.ReleaseDate,
		r.Developer,
		r.Publisher,
		r.Genres,
		strconv.Itoa(r.AchievementsGained),
		strconv.Itoa(r.AchievementsTotal),
	}
}

func parseRow(f []string) (provider.EnrichedRecord, error) {
	var rec provider.EnrichedRecord
	var err error

	rec.Name = f[0]
	if rec.ItemID, err = strconv.Atoi(f[1]); err != nil {
		return rec, fmt.Errorf("item_id %q: %w", f[1], err)
	}
	if rec.PlaytimeHours, err = strconv.ParseFloat(f[2], 64); err != nil {
		return rec, fmt.Errorf("playtime_hours %q: %w", f[2], err)
	}
	rec.Price = f[3]
	rec.ReleaseDate = f[4]
	rec.Developer = f[5]
	rec.Publisher = f[6]
	rec.Genres = f[7]
	if rec.AchievementsGained, err = strconv.Atoi(f[8]); err != nil {
		return rec, fmt.Errorf("achievements_gained %q: %w", f[8], err)
	}
	if rec.AchievementsTotal, err = strconv.Atoi(f[9]); err != nil {
		return rec, fmt.Errorf("achievements_total %q: %w", f[9], err)
	}
	return rec, nil
}
