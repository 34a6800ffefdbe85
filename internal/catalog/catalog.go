package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/pricecmp/internal/model"
)

var (
	// ErrNotFound is returned for a catalog name that does not exist
	ErrNotFound = errors.New("catalog not found")
	// ErrExists is returned when creating a catalog that already exists
	ErrExists = errors.New("catalog already exists")
	// ErrEntryNotFound is returned for an unknown record id
	ErrEntryNotFound = errors.New("entry not found")
	// ErrFull is returned when a catalog reached its entry limit
	ErrFull = errors.New("catalog is full")
)

// Store persists named price catalogs
type Store interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, name string) (*Catalog, error)
	Save(ctx context.Context, c *Catalog) error
	Create(ctx context.Context, name string) error
}

// Catalog is one loaded price list. Records keep their file order, which is
// the order offers are ranked in when unit prices tie.
type Catalog struct {
	Name    string
	Records []model.PriceRecord
	Limit   int // maximum number of records, 0 = unlimited
}

// Find returns the record with id
func (c *Catalog) Find(id int) (model.PriceRecord, error) {
	i := model.FindByID(c.Records, id)
	if i < 0 {
		return model.PriceRecord{}, fmt.Errorf("%w: id %d in %s", ErrEntryNotFound, id, c.Name)
	}
	return c.Records[i], nil
}

// Add appends rec with the next free id and returns the stored record
func (c *Catalog) Add(rec model.PriceRecord) (model.PriceRecord, error) {
	if c.Limit > 0 && len(c.Records) >= c.Limit {
		return model.PriceRecord{}, fmt.Errorf("%w: %s holds %d entries", ErrFull, c.Name, c.Limit)
	}
	rec.ID = model.NextID(c.Records)
	c.Records = append(c.Records, rec)
	return rec, nil
}

// Update replaces the record carrying rec.ID
func (c *Catalog) Update(rec model.PriceRecord) error {
	i := model.FindByID(c.Records, rec.ID)
	if i < 0 {
		return fmt.Errorf("%w: id %d in %s", ErrEntryNotFound, rec.ID, c.Name)
	}
	c.Records[i] = rec
	return nil
}

// Delete removes the record with id, keeping the order of the rest
func (c *Catalog) Delete(id int) error {
	i := model.FindByID(c.Records, id)
	if i < 0 {
		return fmt.Errorf("%w: id %d in %s", ErrEntryNotFound, id, c.Name)
	}
	c.Records = append(c.Records[:i], c.Records[i+1:]...)
	return nil
}

// Import copies catalog name from src into dst, creating it in dst if needed.
// Existing records in dst are replaced.
func Import(ctx context.Context, src, dst Store, name string) (int, error) {
	c, err := src.Load(ctx, name)
	if err != nil {
		return 0, err
	}
	if err := dst.Create(ctx, c.Name); err != nil && !errors.Is(err, ErrExists) {
		return 0, err
	}
	if err := dst.Save(ctx, c); err != nil {
		return 0, fmt.Errorf("import %s: %w", name, err)
	}
	return len(c.Records), nil
}
