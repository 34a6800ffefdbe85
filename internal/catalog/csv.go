package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/pricecmp/internal/cache"
	"github.com/ppiankov/pricecmp/internal/logging"
	"github.com/ppiankov/pricecmp/internal/model"
	"github.com/ppiankov/pricecmp/internal/quantity"
	"github.com/ppiankov/pricecmp/internal/validate"
)

const (
	columns       = 6
	legacyColumns = 5
	csvExtension  = ".csv"
)

// CSVStore keeps one catalog per *.csv file in a directory
type CSVStore struct {
	dir         string
	maxEntries  int
	maxFilename int
	cache       cache.Cache
	ttl         time.Duration
	log         *logging.Entry
}

// Option configures a CSVStore
type Option func(*CSVStore)

// WithCache serves repeated loads of an unchanged file from c
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *CSVStore) {
		s.cache = c
		s.ttl = ttl
	}
}

// WithLogger sets the logger used to report skipped rows
func WithLogger(l *logging.Log) Option {
	return func(s *CSVStore) {
		s.log = l.WithComponent("catalog")
	}
}

// WithMaxFilename bounds catalog name length
func WithMaxFilename(n int) Option {
	return func(s *CSVStore) {
		if n > 0 {
			s.maxFilename = n
		}
	}
}

// NewCSVStore creates a store rooted at dir. maxEntries caps the rows read
// per file and the records a loaded catalog accepts.
func NewCSVStore(dir string, maxEntries int, opts ...Option) *CSVStore {
	s := &CSVStore{
		dir:         dir,
		maxEntries:  maxEntries,
		maxFilename: 259,
		log:         logging.Discard().WithComponent("catalog"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the catalog directory
func (s *CSVStore) Dir() string {
	return s.dir
}

func hasCSVExtension(name string) bool {
	return strings.EqualFold(filepath.Ext(name), csvExtension)
}

// List returns the names of all regular *.csv files in the directory, sorted.
// A missing directory yields an empty list.
func (s *CSVStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list catalogs: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !hasCSVExtension(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Resolve validates name and returns the path of the matching catalog file.
// An exact match wins over a case-insensitive one.
func (s *CSVStore) Resolve(ctx context.Context, name string) (string, error) {
	if err := validate.Filename(name, s.maxFilename); err != nil {
		return "", err
	}
	names, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	match := ""
	for _, n := range names {
		if n == name {
			match = n
			break
		}
		if match == "" && strings.EqualFold(n, name) {
			match = n
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return filepath.Join(s.dir, match), nil
}

// Load reads and parses a catalog. Malformed rows are skipped.
func (s *CSVStore) Load(ctx context.Context, name string) (*Catalog, error) {
	path, err := s.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	key := cache.Key(path, info.ModTime(), info.Size())
	if s.cache != nil {
		if records, ok := s.cache.Get(key); ok {
			return &Catalog{Name: filepath.Base(path), Records: records, Limit: s.maxEntries}, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, skipped, err := s.read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if skipped > 0 {
		s.log.WithFields(logging.Fields{"catalog": filepath.Base(path), "skipped": skipped}).Debug("skipped malformed rows")
	}

	if s.cache != nil {
		s.cache.Set(key, records, s.ttl)
	}
	return &Catalog{Name: filepath.Base(path), Records: records, Limit: s.maxEntries}, nil
}

func (s *CSVStore) read(r io.Reader) ([]model.PriceRecord, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records := []model.PriceRecord{}
	skipped := 0
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, 0, err
		}
		if s.maxEntries > 0 && len(records) >= s.maxEntries {
			skipped++
			continue
		}
		rec, err := parseRow(fields)
		if err != nil {
			s.log.WithError(err).Debug("skip row")
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if n := renumberDuplicates(records); n > 0 {
		s.log.WithFields(logging.Fields{"renumbered": n}).Debug("duplicate ids renumbered")
	}
	return records, skipped, nil
}

// renumberDuplicates gives every record whose id repeats an earlier one the
// next free id, so each row stays addressable by id. It returns the number
// of records changed.
func renumberDuplicates(records []model.PriceRecord) int {
	seen := make(map[int]bool, len(records))
	next := model.NextID(records)
	n := 0
	for i := range records {
		if seen[records[i].ID] {
			records[i].ID = next
			next++
			n++
		}
		seen[records[i].ID] = true
	}
	return n
}

// parseRow accepts six-column rows and legacy five-column rows whose last
// column holds the quantity as free text ("500g").
func parseRow(fields []string) (model.PriceRecord, error) {
	if len(fields) != columns && len(fields) != legacyColumns {
		return model.PriceRecord{}, fmt.Errorf("expected %d fields, got %d", columns, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return model.PriceRecord{}, fmt.Errorf("id %q: %w", fields[0], err)
	}
	price, err := strconv.Atoi(fields[3])
	if err != nil {
		return model.PriceRecord{}, fmt.Errorf("price %q: %w", fields[3], err)
	}

	var (
		value float64
		unit  string
	)
	if len(fields) == columns {
		value, err = quantity.ParseValue(fields[4])
		unit = fields[5]
	} else {
		value, unit, err = quantity.Parse(fields[4])
	}
	if err != nil {
		return model.PriceRecord{}, err
	}
	if value < 0 {
		return model.PriceRecord{}, fmt.Errorf("negative quantity %s", quantity.Format(value))
	}

	value, unit, err = quantity.Canonical(value, unit)
	if err != nil {
		return model.PriceRecord{}, err
	}

	return model.PriceRecord{
		ID:            id,
		Article:       fields[1],
		Provider:      fields[2],
		PriceCents:    price,
		QuantityValue: value,
		QuantityUnit:  unit,
	}, nil
}

// Save writes c back to its file in six-column form. The file is replaced
// atomically through a temporary file in the same directory.
func (s *CSVStore) Save(ctx context.Context, c *Catalog) error {
	path, err := s.Resolve(ctx, c.Name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".pricecmp-*.tmp")
	if err != nil {
		return fmt.Errorf("save %s: %w", c.Name, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	for _, rec := range c.Records {
		row := []string{
			strconv.Itoa(rec.ID),
			rec.Article,
			rec.Provider,
			strconv.Itoa(rec.PriceCents),
			quantity.Format(rec.QuantityValue),
			rec.QuantityUnit,
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("save %s: %w", c.Name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %w", c.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", c.Name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save %s: %w", c.Name, err)
	}

	// a rewrite within one mtime tick can keep the old key
	if s.cache != nil {
		if info, err := os.Stat(path); err == nil {
			s.cache.Set(cache.Key(path, info.ModTime(), info.Size()), c.Records, s.ttl)
		}
	}
	return nil
}

// Create makes a new empty catalog file. The name must end in .csv.
func (s *CSVStore) Create(ctx context.Context, name string) error {
	if err := validate.Filename(name, s.maxFilename); err != nil {
		return err
	}
	if !hasCSVExtension(name) {
		return fmt.Errorf("%w: catalog name %q must end in %s", validate.ErrInvalidInput, name, csvExtension)
	}
	if _, err := s.Resolve(ctx, name); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, name)
		}
		return fmt.Errorf("create %s: %w", name, err)
	}
	return f.Close()
}
