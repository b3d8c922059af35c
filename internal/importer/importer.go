package importer

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"esim-storefront/internal/domain"
	"github.com/pkg/errors"
)

// DefaultBatchSize bounds how many rows go into one batched upsert.
const DefaultBatchSize = 200

type Kind string

const (
	KindPackages  Kind = "packages"
	KindCountries Kind = "countries"
)

// CatalogWriter is the catalog sync surface the importer drives.
type CatalogWriter interface {
	UpsertPackages(ctx context.Context, packages []domain.Package) (int, error)
	UpsertCountries(ctx context.Context, countries []domain.Country) (int, error)
	RefreshCountryStats(ctx context.Context) (int, error)
}

// CSVImporter reads provider catalog feeds and upserts them in batches.
type CSVImporter struct {
	reader    *csv.Reader
	writer    CatalogWriter
	batchSize int
	now       func() time.Time
}

func NewCSVImporter(r io.Reader, w CatalogWriter, batchSize int) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &CSVImporter{reader: csvr, writer: w, batchSize: batchSize, now: time.Now}
}

// Result summarises one import run.
type Result struct {
	Kind      Kind
	Imported  int
	Refreshed int
}

// Run detects the feed kind from its header, upserts every row and then
// refreshes the cached country aggregates.
func (i *CSVImporter) Run(ctx context.Context) (*Result, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read headers")
	}
	index := headerIndex(headers)
	kind, err := kindOf(index)
	if err != nil {
		return nil, err
	}

	res := &Result{Kind: kind}
	switch kind {
	case KindPackages:
		res.Imported, err = i.runPackages(ctx, index)
	case KindCountries:
		res.Imported, err = i.runCountries(ctx, index)
	}
	if err != nil {
		return res, err
	}

	res.Refreshed, err = i.writer.RefreshCountryStats(ctx)
	if err != nil {
		return res, errors.Wrap(err, "refresh country stats")
	}
	return res, nil
}

func (i *CSVImporter) runPackages(ctx context.Context, index map[string]int) (int, error) {
	synced := i.now().UTC()
	batch := make([]domain.Package, 0, i.batchSize)
	imported := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := i.writer.UpsertPackages(ctx, batch)
		if err != nil {
			return errors.Wrap(err, "upsert packages")
		}
		imported += n
		batch = batch[:0]
		return nil
	}

	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, errors.Wrapf(err, "read row %d", line)
		}
		if blank(record) {
			continue
		}
		p, err := parsePackage(record, index)
		if err != nil {
			return imported, errors.Wrapf(err, "row %d", line)
		}
		p.LastSyncedAt = synced
		batch = append(batch, p)
		if len(batch) == i.batchSize {
			if err := flush(); err != nil {
				return imported, err
			}
		}
	}
	return imported, flush()
}

func (i *CSVImporter) runCountries(ctx context.Context, index map[string]int) (int, error) {
	var countries []domain.Country
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return 0, errors.Wrapf(err, "read row %d", line)
		}
		if blank(record) {
			continue
		}
		popular, _ := strconv.ParseBool(pick(record, index, "popular"))
		countries = append(countries, domain.Country{
			Code:      pick(record, index, "code"),
			Name:      pick(record, index, "name"),
			Region:    pick(record, index, "region"),
			FlagEmoji: pick(record, index, "flagEmoji"),
			Popular:   popular,
		})
	}

	imported := 0
	for start := 0; start < len(countries); start += i.batchSize {
		end := min(start+i.batchSize, len(countries))
		n, err := i.writer.UpsertCountries(ctx, countries[start:end])
		if err != nil {
			return imported, errors.Wrap(err, "upsert countries")
		}
		imported += n
	}
	return imported, nil
}

// DetectKind peeks at the header row of a feed.
func DetectKind(r io.Reader) (Kind, error) {
	header, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "read header")
	}
	rec, err := csv.NewReader(strings.NewReader(header)).Read()
	if err != nil {
		return "", errors.Wrap(err, "parse header")
	}
	return kindOf(headerIndex(rec))
}

func kindOf(index map[string]int) (Kind, error) {
	if _, ok := index["packageCode"]; ok {
		return KindPackages, nil
	}
	_, code := index["code"]
	_, region := index["region"]
	if code && region {
		return KindCountries, nil
	}
	return "", errors.New("unrecognised feed: expected a packageCode column or code and region columns")
}

func parsePackage(record []string, index map[string]int) (domain.Package, error) {
	p := domain.Package{
		PackageCode:  pick(record, index, "packageCode"),
		Name:         pick(record, index, "name"),
		LocationCode: pick(record, index, "locationCode"),
		LocationName: pick(record, index, "locationName"),
		Currency:     pick(record, index, "currency"),
		Description:  pick(record, index, "description"),
	}
	var err error
	if p.WholesalePrice, err = parseInt(record, index, "wholesalePrice"); err != nil {
		return p, err
	}
	if p.RetailPrice, err = parseInt(record, index, "retailPrice"); err != nil {
		return p, err
	}
	if p.Volume, err = parseInt(record, index, "volume"); err != nil {
		return p, err
	}
	duration, err := parseInt(record, index, "duration")
	if err != nil {
		return p, err
	}
	p.Duration = int(duration)
	activeType, err := parseInt(record, index, "activeType")
	if err != nil {
		return p, err
	}
	p.ActiveType = int(activeType)
	if p.Currency == "" {
		p.Currency = "USD"
	}
	return p, nil
}

// parseInt treats a missing column or empty cell as zero.
func parseInt(record []string, index map[string]int, key string) (int64, error) {
	raw := pick(record, index, key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "column %s", key)
	}
	return v, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
