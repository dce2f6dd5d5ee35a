package catalog

import (
	"database/sql"
	"errors"
	"time"
)

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry                          Entry
		series, number, title, publish sql.NullString
		volume, year                   sql.NullInt64
		hasMetadata                    int
		modTimeRaw, scannedAtRaw       string
	)
	if err := scanner.Scan(
		&entry.Path,
		&series,
		&number,
		&volume,
		&title,
		&year,
		&publish,
		&entry.PageCount,
		&hasMetadata,
		&entry.Size,
		&modTimeRaw,
		&scannedAtRaw,
	); err != nil {
		return nil, err
	}
	entry.Series = series.String
	entry.Number = number.String
	entry.Title = title.String
	entry.Publisher = publish.String
	entry.Volume = intPtr(volume)
	entry.Year = intPtr(year)
	entry.HasMetadata = hasMetadata != 0
	if t, err := parseTimeString(modTimeRaw); err == nil {
		entry.ModTime = t
	}
	if t, err := parseTimeString(scannedAtRaw); err == nil {
		entry.ScannedAt = t
	}
	return &entry, nil
}

func intPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
