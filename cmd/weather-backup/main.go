package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/skywatchwx/skywatch/internal/database"
	"github.com/skywatchwx/skywatch/internal/log"
	"github.com/skywatchwx/skywatch/internal/weather"
)

type backupFormat string

const (
	formatCSV     backupFormat = "csv"
	formatJSON    backupFormat = "json"
	formatMsgpack backupFormat = "msgpack"
)

var csvColumns = []string{"city", "kind", "observed_at", "temperature", "feels_like", "humidity", "wind_speed", "condition", "latitude", "longitude"}

// exportRecord is the on-disk row shape. Latitude and longitude are part of
// the backup even though the public API never returns them.
type exportRecord struct {
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

func toExportRecord(obs weather.Observation) exportRecord {
	return exportRecord{
		City:        obs.City,
		Kind:        string(obs.Kind),
		ObservedAt:  obs.ObservedAt.UTC(),
		Temperature: obs.Temperature,
		FeelsLike:   obs.FeelsLike,
		Humidity:    obs.Humidity,
		WindSpeed:   obs.WindSpeed,
		Condition:   obs.Condition,
		Latitude:    obs.Latitude,
		Longitude:   obs.Longitude,
	}
}

func main() {
	var (
		dsn       = flag.String("dsn", "skywatch.db", "Storage connection string (postgres:// URL or SQLite file path)")
		city      = flag.String("city", "", "Only back up observations for this city (default: all cities)")
		formatStr = flag.String("format", "csv", "Backup format: csv, json, or msgpack")
		output    = flag.String("output", "weather_backup", "Output file base name (extension added automatically)")
		batchSize = flag.Int("batch", 1000, "Number of rows to read per batch")
		debug     = flag.Bool("debug", false, "Turn on debugging output")
	)
	flag.Parse()

	var format backupFormat
	switch backupFormat(*formatStr) {
	case formatCSV, formatJSON, formatMsgpack:
		format = backupFormat(*formatStr)
	default:
		fmt.Fprintf(os.Stderr, "Invalid format: %s. Must be csv, json, or msgpack\n", *formatStr)
		os.Exit(1)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db := database.NewClient(*dsn, log.GetSugaredLogger())
	if err := db.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()

	total, err := db.CountObservations(ctx, *city)
	if err != nil {
		log.Fatalf("Failed to count observations: %v", err)
	}
	log.Infof("found %d observations to back up", total)

	filename := *output + "." + string(format)
	file, err := os.Create(filename)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", filename, err)
	}
	defer file.Close()

	prog := &progress{total: total}

	switch format {
	case formatCSV:
		err = backupToCSV(ctx, db, file, *city, *batchSize, prog)
	case formatJSON:
		err = backupToJSON(ctx, db, file, *city, *batchSize, prog)
	case formatMsgpack:
		err = backupToMsgpack(ctx, db, file, *city, *batchSize, prog)
	}
	if err != nil {
		log.Fatalf("Backup failed: %v", err)
	}

	log.Infof("exported %d observations to %s", prog.count, filename)
}

func backupToCSV(ctx context.Context, db *database.Client, file *os.File, city string, batchSize int, prog *progress) error {
	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(csvColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	err := db.ForEachObservationBatch(ctx, city, batchSize, func(batch []weather.Observation) error {
		for _, obs := range batch {
			rec := toExportRecord(obs)
			row := []string{
				rec.City,
				rec.Kind,
				rec.ObservedAt.Format(time.RFC3339),
				strconv.FormatFloat(rec.Temperature, 'f', -1, 64),
				strconv.FormatFloat(rec.FeelsLike, 'f', -1, 64),
				strconv.Itoa(rec.Humidity),
				strconv.FormatFloat(rec.WindSpeed, 'f', -1, 64),
				rec.Condition,
				strconv.FormatFloat(rec.Latitude, 'f', -1, 64),
				strconv.FormatFloat(rec.Longitude, 'f', -1, 64),
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write record: %w", err)
			}
			prog.tick()
		}
		return nil
	})
	if err != nil {
		return err
	}

	writer.Flush()
	return writer.Error()
}

func backupToJSON(ctx context.Context, db *database.Client, file *os.File, city string, batchSize int, prog *progress) error {
	if _, err := file.WriteString("[\n"); err != nil {
		return err
	}

	first := true
	err := db.ForEachObservationBatch(ctx, city, batchSize, func(batch []weather.Observation) error {
		for _, obs := range batch {
			if !first {
				if _, err := file.WriteString(",\n"); err != nil {
					return err
				}
			}
			first = false

			b, err := json.Marshal(toExportRecord(obs))
			if err != nil {
				return fmt.Errorf("failed to encode record: %w", err)
			}
			if _, err := file.WriteString("  "); err != nil {
				return err
			}
			if _, err := file.Write(b); err != nil {
				return err
			}
			prog.tick()
		}
		return nil
	})
	if err != nil {
		return err
	}

	_, err = file.WriteString("\n]\n")
	return err
}

func backupToMsgpack(ctx context.Context, db *database.Client, file *os.File, city string, batchSize int, prog *progress) error {
	encoder := msgpack.NewEncoder(file)
	encoder.SetCustomStructTag("json")

	return db.ForEachObservationBatch(ctx, city, batchSize, func(batch []weather.Observation) error {
		for _, obs := range batch {
			if err := encoder.Encode(toExportRecord(obs)); err != nil {
				return fmt.Errorf("failed to encode record: %w", err)
			}
			prog.tick()
		}
		return nil
	})
}

// progress logs a line at each whole percentage point so long exports show
// they are moving.
type progress struct {
	total int64
	count int64
	last  int
}

func (p *progress) tick() {
	p.count++
	if p.total > 0 {
		pct := int(p.count * 100 / p.total)
		if pct != p.last {
			log.Infof("progress: %d%% (%d/%d records)", pct, p.count, p.total)
			p.last = pct
		}
	} else if p.count%10000 == 0 {
		log.Infof("processed %d records...", p.count)
	}
}
