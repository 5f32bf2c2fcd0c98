package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/skywatchwx/skywatch/internal/database"
	"github.com/skywatchwx/skywatch/internal/log"
	"github.com/skywatchwx/skywatch/internal/weather"
)

// importRecord mirrors the shape weather-backup writes.
type importRecord struct {
	City        string    `json:"city"`
	Kind        string    `json:"kind"`
	ObservedAt  time.Time `json:"observedAt"`
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feelsLike"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"windSpeed"`
	Condition   string    `json:"condition"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
}

func (r importRecord) toObservation() (weather.Observation, error) {
	if strings.TrimSpace(r.City) == "" {
		return weather.Observation{}, errors.New("missing city")
	}
	kind := weather.Kind(r.Kind)
	if kind != weather.KindCurrent && kind != weather.KindForecast {
		return weather.Observation{}, fmt.Errorf("unknown kind %q", r.Kind)
	}
	if r.ObservedAt.IsZero() {
		return weather.Observation{}, errors.New("missing observed_at")
	}
	return weather.Observation{
		City:        r.City,
		Kind:        kind,
		ObservedAt:  r.ObservedAt.UTC(),
		Temperature: r.Temperature,
		FeelsLike:   r.FeelsLike,
		Humidity:    r.Humidity,
		WindSpeed:   r.WindSpeed,
		Condition:   r.Condition,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
	}, nil
}

func main() {
	var (
		dsn       = flag.String("dsn", "skywatch.db", "Storage connection string (postgres:// URL or SQLite file path)")
		inputFile = flag.String("file", "", "Backup file to restore from (required)")
		formatStr = flag.String("format", "", "File format: csv, json, or msgpack (default: inferred from extension)")
		batchSize = flag.Int("batch", 1000, "Number of rows to insert per batch")
		dryRun    = flag.Bool("dry-run", false, "Parse the file without writing to the database")
		debug     = flag.Bool("debug", false, "Turn on debugging output")
	)
	flag.Parse()

	if *inputFile == "" {
		fmt.Fprintln(os.Stderr, "Backup file is required. Use -file flag")
		os.Exit(1)
	}

	format := *formatStr
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(*inputFile), ".")
	}
	switch format {
	case "csv", "json", "msgpack":
	default:
		fmt.Fprintf(os.Stderr, "Cannot determine format from %q. Use -format csv|json|msgpack\n", *inputFile)
		os.Exit(1)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	sink := func(context.Context, []weather.Observation) error { return nil }
	if *dryRun {
		log.Info("DRY RUN - rows will be parsed but not written")
	} else {
		db := database.NewClient(*dsn, log.GetSugaredLogger())
		if err := db.Connect(); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		sink = db.SaveObservations
	}

	file, err := os.Open(*inputFile)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *inputFile, err)
	}
	defer file.Close()

	ctx := context.Background()
	l := &loader{sink: sink, batchSize: *batchSize}

	switch format {
	case "csv":
		err = restoreFromCSV(ctx, l, file)
	case "json":
		err = restoreFromJSON(ctx, l, file)
	case "msgpack":
		err = restoreFromMsgpack(ctx, l, file)
	}
	if err == nil {
		err = l.flush(ctx)
	}
	if err != nil {
		log.Fatalf("Restore failed: %v", err)
	}

	if *dryRun {
		log.Infof("dry run complete: %d observations parsed", l.total)
	} else {
		log.Infof("restored %d observations", l.total)
	}
}

// loader buffers parsed rows and writes them out in batches.
type loader struct {
	sink      func(context.Context, []weather.Observation) error
	batchSize int
	pending   []weather.Observation
	total     int64
}

func (l *loader) add(ctx context.Context, obs weather.Observation) error {
	l.pending = append(l.pending, obs)
	if len(l.pending) >= l.batchSize {
		return l.flush(ctx)
	}
	return nil
}

func (l *loader) flush(ctx context.Context) error {
	if len(l.pending) == 0 {
		return nil
	}
	if err := l.sink(ctx, l.pending); err != nil {
		return err
	}
	l.total += int64(len(l.pending))
	log.Infof("loaded %d observations...", l.total)
	l.pending = l.pending[:0]
	return nil
}

func restoreFromCSV(ctx context.Context, l *loader, file *os.File) error {
	reader := csv.NewReader(file)

	headers, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"city", "kind", "observed_at"} {
		if _, ok := idx[required]; !ok {
			return fmt.Errorf("CSV is missing required column %q", required)
		}
	}

	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}

		obs, err := observationFromRow(record, idx)
		if err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
		if err := l.add(ctx, obs); err != nil {
			return err
		}
	}
	return nil
}

func observationFromRow(record []string, idx map[string]int) (weather.Observation, error) {
	field := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}
	floatField := func(name string) (float64, error) {
		s := field(name)
		if s == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing %s: %w", name, err)
		}
		return v, nil
	}

	observedAt, err := time.Parse(time.RFC3339, field("observed_at"))
	if err != nil {
		return weather.Observation{}, fmt.Errorf("parsing observed_at: %w", err)
	}

	humidity := 0
	if s := field("humidity"); s != "" {
		humidity, err = strconv.Atoi(s)
		if err != nil {
			return weather.Observation{}, fmt.Errorf("parsing humidity: %w", err)
		}
	}

	rec := importRecord{
		City:       field("city"),
		Kind:       field("kind"),
		ObservedAt: observedAt,
		Humidity:   humidity,
		Condition:  field("condition"),
	}
	if rec.Temperature, err = floatField("temperature"); err != nil {
		return weather.Observation{}, err
	}
	if rec.FeelsLike, err = floatField("feels_like"); err != nil {
		return weather.Observation{}, err
	}
	if rec.WindSpeed, err = floatField("wind_speed"); err != nil {
		return weather.Observation{}, err
	}
	if rec.Latitude, err = floatField("latitude"); err != nil {
		return weather.Observation{}, err
	}
	if rec.Longitude, err = floatField("longitude"); err != nil {
		return weather.Observation{}, err
	}

	return rec.toObservation()
}

func restoreFromJSON(ctx context.Context, l *loader, file *os.File) error {
	decoder := json.NewDecoder(file)

	// Opening bracket of the array
	if _, err := decoder.Token(); err != nil {
		return fmt.Errorf("failed to read JSON array: %w", err)
	}

	row := 0
	for decoder.More() {
		row++
		var rec importRecord
		if err := decoder.Decode(&rec); err != nil {
			return fmt.Errorf("record %d: %w", row, err)
		}
		obs, err := rec.toObservation()
		if err != nil {
			return fmt.Errorf("record %d: %w", row, err)
		}
		if err := l.add(ctx, obs); err != nil {
			return err
		}
	}
	return nil
}

func restoreFromMsgpack(ctx context.Context, l *loader, file *os.File) error {
	decoder := msgpack.NewDecoder(file)
	decoder.SetCustomStructTag("json")

	row := 0
	for {
		var rec importRecord
		err := decoder.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return nil
		}
		row++
		if err != nil {
			return fmt.Errorf("record %d: %w", row, err)
		}
		obs, err := rec.toObservation()
		if err != nil {
			return fmt.Errorf("record %d: %w", row, err)
		}
		if err := l.add(ctx, obs); err != nil {
			return err
		}
	}
}
