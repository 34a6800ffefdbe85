package shoplist

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ppiankov/pricecmp/internal/compare"
	"github.com/ppiankov/pricecmp/internal/model"
)

const separator = "|"

var (
	// ErrIndex is returned for an item index outside the list
	ErrIndex = errors.New("list index out of range")
	// ErrFull is returned when adding to a list at its item limit
	ErrFull = errors.New("shopping list is full")
)

// List is the shopping list file: one "article|provider" entry per line.
// Methods serialize their read-modify-write cycles.
type List struct {
	path     string
	maxItems int
	mu       sync.Mutex
}

// New creates a list backed by path. maxItems caps the entries read and added.
func New(path string, maxItems int) *List {
	return &List{path: path, maxItems: maxItems}
}

// Path returns the list file path
func (l *List) Path() string {
	return l.path
}

// Split parses one list line. Without a separator the whole line is the article.
func Split(line string) model.ListItem {
	article, provider, _ := strings.Cut(line, separator)
	return model.ListItem{
		Article:  strings.TrimSpace(article),
		Provider: strings.TrimSpace(provider),
	}
}

// Build renders item as a list line, omitting an empty provider
func Build(item model.ListItem) string {
	if item.Provider == "" {
		return item.Article
	}
	return item.Article + separator + item.Provider
}

// Text renders items as the list file content
func Text(items []model.ListItem) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(Build(item))
		b.WriteByte('\n')
	}
	return b.String()
}

// Load reads the list. A missing file is an empty list; blank lines are skipped.
func (l *List) Load() ([]model.ListItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

func (l *List) load() ([]model.ListItem, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.ListItem{}, nil
		}
		return nil, fmt.Errorf("open shopping list: %w", err)
	}
	defer f.Close()

	items := []model.ListItem{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if l.maxItems > 0 && len(items) >= l.maxItems {
			break
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		items = append(items, Split(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read shopping list: %w", err)
	}
	return items, nil
}

// Save replaces the list file with items
func (l *List) Save(items []model.ListItem) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.save(items)
}

func (l *List) save(items []model.ListItem) error {
	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("save shopping list: %w", err)
		}
	}
	if err := os.WriteFile(l.path, []byte(Text(items)), 0644); err != nil {
		return fmt.Errorf("save shopping list: %w", err)
	}
	return nil
}

// Add appends item
func (l *List) Add(item model.ListItem) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.load()
	if err != nil {
		return err
	}
	if l.maxItems > 0 && len(items) >= l.maxItems {
		return fmt.Errorf("%w: %d items", ErrFull, l.maxItems)
	}
	return l.save(append(items, item))
}

// Update replaces the item at index
func (l *List) Update(index int, item model.ListItem) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.load()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(items) {
		return fmt.Errorf("%w: %d of %d", ErrIndex, index, len(items))
	}
	items[index] = item
	return l.save(items)
}

// Delete removes the item at index
func (l *List) Delete(index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.load()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(items) {
		return fmt.Errorf("%w: %d of %d", ErrIndex, index, len(items))
	}
	return l.save(append(items[:index], items[index+1:]...))
}

// Apply rewrites each item's provider to its recommended provider. results
// must come from a sweep over the current list; an entry whose article no
// longer matches the item at its position is left alone. It returns the
// number of items changed and saves only when something changed.
func (l *List) Apply(results []compare.SweepResult) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.load()
	if err != nil {
		return 0, err
	}
	changed := 0
	for i, res := range results {
		if i >= len(items) || !res.Changed() || items[i].Article != res.Item.Article {
			continue
		}
		items[i].Provider = res.Offer.Record.Provider
		changed++
	}
	if changed == 0 {
		return 0, nil
	}
	return changed, l.save(items)
}
