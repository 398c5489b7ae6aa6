package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/storage/postgres"
)

const (
	bloomFPR      = 0.001
	progressEvery = 1000
	maxLineSize   = 1 << 20
)

// record is one line of an import file.
type record struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Available   bool
}

// store is the subset of the catalog repository the importer writes through.
type store interface {
	UpsertCategory(ctx context.Context, c *catalog.Category) error
	UpsertCoffee(ctx context.Context, c *catalog.Coffee) error
	CoffeeNames(ctx context.Context, fn func(name string)) error
	CoffeeExists(ctx context.Context, name string) (bool, error)
}

func main() {
	var (
		dataDir     string
		pattern     string
		databaseURL string
		expected    uint
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing catalog files")
	flag.StringVar(&pattern, "pattern", "*.jsonl.gz", "glob for gzip'd JSON-lines catalog files inside data-dir")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.UintVar(&expected, "expected", 100_000, "expected number of coffees, sizes the name filter")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, pattern, databaseURL, expected); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, dataDir, pattern, databaseURL string, expected uint) error {
	files, err := filepath.Glob(filepath.Join(dataDir, pattern))
	if err != nil {
		return errors.Wrap(err, "glob catalog files")
	}
	if len(files) == 0 {
		slog.Info("no catalog files found", slog.String("dir", dataDir), slog.String("pattern", pattern))
		return nil
	}
	sort.Strings(files)

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL, postgres.PoolConfig{})
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	imp := newImporter(postgres.NewCatalogRepository(pool), expected)
	if err := imp.loadKnown(ctx); err != nil {
		return errors.Wrap(err, "load existing names")
	}
	if err := imp.importFiles(ctx, files); err != nil {
		return err
	}

	slog.Info("import summary",
		slog.Int64("created", imp.created.Load()),
		slog.Int64("updated", imp.updated.Load()),
		slog.Int64("skipped", imp.skipped.Load()),
	)
	return nil
}

type importer struct {
	store store

	mu         sync.Mutex
	known      *bloom.BloomFilter
	categories map[string]int64

	created atomic.Int64
	updated atomic.Int64
	skipped atomic.Int64
}

func newImporter(s store, expected uint) *importer {
	if expected == 0 {
		expected = 1
	}
	return &importer{
		store:      s,
		known:      bloom.NewWithEstimates(expected, bloomFPR),
		categories: make(map[string]int64),
	}
}

// loadKnown fills the name filter with every coffee already on the menu so
// new names skip the existence query.
func (imp *importer) loadKnown(ctx context.Context) error {
	var count int
	err := imp.store.CoffeeNames(ctx, func(name string) {
		imp.known.AddString(name)
		count++
	})
	if err != nil {
		return err
	}
	slog.Info("loaded existing coffees", slog.Int("count", count))
	return nil
}

// importFiles streams every file concurrently and upserts its records.
func (imp *importer) importFiles(ctx context.Context, files []string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(func() error {
			return imp.importFile(ctx, f)
		})
	}
	return g.Wait()
}

func (imp *importer) importFile(ctx context.Context, path string) error {
	var lines int
	err := streamGzFile(ctx, path, func(line []byte) error {
		lines++
		if len(bytes.TrimSpace(line)) == 0 {
			return nil
		}

		rec, err := decodeRecord(line)
		if err != nil {
			imp.skipped.Add(1)
			slog.Warn("skipping record",
				slog.String("file", filepath.Base(path)),
				slog.Int("line", lines),
				slog.String("error", err.Error()),
			)
			return nil
		}
		if err := imp.upsert(ctx, rec); err != nil {
			return errors.Wrapf(err, "line %d", lines)
		}

		if lines%progressEvery == 0 {
			slog.Info("import progress", slog.String("file", filepath.Base(path)), slog.Int("lines", lines))
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "import %s", path)
	}

	slog.Info("file complete", slog.String("file", filepath.Base(path)), slog.Int("lines", lines))
	return nil
}

func (imp *importer) upsert(ctx context.Context, rec record) error {
	exists, err := imp.exists(ctx, rec.Name)
	if err != nil {
		return err
	}

	coffee := &catalog.Coffee{
		Name:        rec.Name,
		Description: rec.Description,
		Price:       rec.Price,
		IsAvailable: rec.Available,
	}
	if rec.Category != "" {
		id, err := imp.categoryID(ctx, rec.Category)
		if err != nil {
			return err
		}
		coffee.CategoryID = &id
	}
	if err := imp.store.UpsertCoffee(ctx, coffee); err != nil {
		return err
	}

	if exists {
		imp.updated.Add(1)
	} else {
		imp.created.Add(1)
	}
	return nil
}

// exists reports whether name is already on the menu and marks it as known.
// Filter hits are confirmed against the database.
func (imp *importer) exists(ctx context.Context, name string) (bool, error) {
	imp.mu.Lock()
	maybe := imp.known.TestOrAddString(name)
	imp.mu.Unlock()
	if !maybe {
		return false, nil
	}
	return imp.store.CoffeeExists(ctx, name)
}

func (imp *importer) categoryID(ctx context.Context, name string) (int64, error) {
	imp.mu.Lock()
	defer imp.mu.Unlock()

	if id, ok := imp.categories[name]; ok {
		return id, nil
	}
	c := &catalog.Category{Name: name}
	if err := imp.store.UpsertCategory(ctx, c); err != nil {
		return 0, err
	}
	imp.categories[name] = c.ID
	return c.ID, nil
}

// decodeRecord parses one JSON object. Price may be a number or a string;
// is_available defaults to true.
func decodeRecord(line []byte) (record, error) {
	rec := record{Available: true}
	d := jx.DecodeBytes(line)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			rec.Name, err = d.Str()
		case "description":
			rec.Description, err = d.Str()
		case "category":
			rec.Category, err = d.Str()
		case "price":
			rec.Price, err = decodePrice(d)
		case "is_available":
			rec.Available, err = d.Bool()
		default:
			return d.Skip()
		}
		return errors.Wrap(err, key)
	})
	if err != nil {
		return record{}, errors.Wrap(err, "decode record")
	}

	rec.Name = strings.TrimSpace(rec.Name)
	rec.Category = strings.TrimSpace(rec.Category)
	switch {
	case rec.Name == "":
		return record{}, errors.New("name is required")
	case !rec.Price.IsPositive():
		return record{}, errors.Errorf("price of %q must be positive", rec.Name)
	}
	rec.Price = rec.Price.Round(2)
	return rec, nil
}

func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(string(n))
	default:
		return decimal.Decimal{}, errors.New("expected number or string")
	}
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Bytes()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}
