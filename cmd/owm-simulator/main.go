package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"hash/fnv"
	"log"
	"math"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

const (
	defaultAddr   = ":7210"
	forecastSteps = 40
	stepInterval  = 3 * time.Hour
)

var conditionNames = []string{"Clear", "Clouds", "Rain", "Drizzle", "Thunderstorm", "Mist"}

// simulator serves synthetic OpenWeatherMap responses so the full pipeline can
// run locally without an API key or network access.
type simulator struct {
	missing map[string]bool
	logger  *log.Logger
}

func main() {
	var (
		addr    = flag.String("addr", defaultAddr, "Address to listen on")
		missing = flag.String("missing", "nowhere", "Comma-separated city names that return 404, for exercising the not-found path")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[owm-simulator] ", log.LstdFlags)

	sim := &simulator{
		missing: make(map[string]bool),
		logger:  logger,
	}
	for _, name := range strings.Split(*missing, ",") {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			sim.missing[name] = true
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/data/2.5/weather", sim.handleCurrent)
	mux.HandleFunc("/data/2.5/forecast", sim.handleForecast)

	server := &http.Server{Addr: *addr, Handler: mux}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Println("Received shutdown signal")
		cancel()
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
	}()

	logger.Printf("Serving simulated OpenWeatherMap API on %s", *addr)
	logger.Printf("Point the service at it with provider base-url http://localhost%s and any non-empty api-key", *addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server error: %v", err)
	}
}

func (s *simulator) handleCurrent(w http.ResponseWriter, r *http.Request) {
	city, ok := s.lookupCity(w, r)
	if !ok {
		return
	}

	p := profileFor(city)
	now := time.Now().UTC()
	tempK, humidity, wind, condition := p.sample(city, now)

	resp := map[string]interface{}{
		"coord": map[string]float64{"lat": p.lat, "lon": p.lon},
		"weather": []map[string]string{
			{"main": condition, "description": strings.ToLower(condition)},
		},
		"main": map[string]interface{}{
			"temp":       round1(tempK),
			"feels_like": round1(tempK + wind*0.2),
			"humidity":   humidity,
		},
		"wind": map[string]float64{"speed": round1(wind)},
		"dt":   now.Unix(),
		"name": city,
	}

	s.logger.Printf("current %s: %.1fK %d%% %s", city, tempK, humidity, condition)
	writeJSON(w, http.StatusOK, resp)
}

func (s *simulator) handleForecast(w http.ResponseWriter, r *http.Request) {
	city, ok := s.lookupCity(w, r)
	if !ok {
		return
	}

	p := profileFor(city)
	start := time.Now().UTC().Truncate(stepInterval).Add(stepInterval)

	list := make([]map[string]interface{}, 0, forecastSteps)
	for i := 0; i < forecastSteps; i++ {
		at := start.Add(time.Duration(i) * stepInterval)
		tempK, humidity, wind, condition := p.sample(city, at)
		list = append(list, map[string]interface{}{
			"dt": at.Unix(),
			"main": map[string]interface{}{
				"temp":       round1(tempK),
				"feels_like": round1(tempK + wind*0.2),
				"humidity":   humidity,
			},
			"weather": []map[string]string{{"main": condition}},
			"wind":    map[string]float64{"speed": round1(wind)},
		})
	}

	resp := map[string]interface{}{
		"list": list,
		"city": map[string]interface{}{
			"name":  city,
			"coord": map[string]float64{"lat": p.lat, "lon": p.lon},
		},
	}

	s.logger.Printf("forecast %s: %d entries from %s", city, len(list), start.Format(time.RFC3339))
	writeJSON(w, http.StatusOK, resp)
}

// lookupCity validates the query the way the real API does: missing q is a
// 400, missing appid a 401, and configured missing cities a 404.
func (s *simulator) lookupCity(w http.ResponseWriter, r *http.Request) (string, bool) {
	city := strings.TrimSpace(r.URL.Query().Get("q"))
	if city == "" {
		writeAPIError(w, http.StatusBadRequest, "Nothing to geocode")
		return "", false
	}
	if r.URL.Query().Get("appid") == "" {
		writeAPIError(w, http.StatusUnauthorized, "Invalid API key")
		return "", false
	}
	if s.missing[strings.ToLower(city)] {
		writeAPIError(w, http.StatusNotFound, "city not found")
		return "", false
	}
	return city, true
}

// cityProfile gives every city a stable climate so repeated requests look
// like the same place.
type cityProfile struct {
	baseTempK    float64
	baseHumidity int
	baseWind     float64
	lat          float64
	lon          float64
}

func profileFor(city string) cityProfile {
	rng := rand.New(rand.NewSource(int64(cityHash(city))))
	return cityProfile{
		baseTempK:    278 + rng.Float64()*25,
		baseHumidity: 35 + rng.Intn(50),
		baseWind:     1 + rng.Float64()*7,
		lat:          -60 + rng.Float64()*120,
		lon:          -180 + rng.Float64()*360,
	}
}

// sample produces conditions for a city at a point in time. Deterministic so
// the same request at the same timestamp replays identically.
func (p cityProfile) sample(city string, at time.Time) (tempK float64, humidity int, wind float64, condition string) {
	// Diurnal wave peaking mid-afternoon
	hour := float64(at.Hour()) + float64(at.Minute())/60
	diurnal := 4 * math.Sin((hour-9)/24*2*math.Pi)

	block := at.Unix() / int64(stepInterval.Seconds())
	rng := rand.New(rand.NewSource(int64(cityHash(city)) ^ block))

	tempK = p.baseTempK + diurnal + rng.Float64()*2 - 1
	humidity = p.baseHumidity + rng.Intn(21) - 10
	if humidity < 0 {
		humidity = 0
	}
	if humidity > 100 {
		humidity = 100
	}
	wind = p.baseWind + rng.Float64()*3 - 1.5
	if wind < 0 {
		wind = 0
	}
	condition = conditionNames[rng.Intn(len(conditionNames))]
	return tempK, humidity, wind, condition
}

func cityHash(city string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(city))))
	return h.Sum64()
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		fmt.Fprintf(os.Stderr, "encoding response: %v\n", err)
	}
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"cod":     fmt.Sprintf("%d", status),
		"message": message,
	})
}
