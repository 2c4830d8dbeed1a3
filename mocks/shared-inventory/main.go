// Command shared-inventory serves a canned copy of the shared inventory API
// for local runs and the e2e suite.
package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const unknownBarcode = "Item Barcode doesn't exist in SCSB database."

type fixture struct {
	Status       string `json:"status"`
	CustomerCode string `json:"customerCode,omitempty"`
	// Slow items hold the whole batch response for the configured delay.
	Slow bool `json:"slow,omitempty"`
}

type dataset struct {
	Items map[string]fixture `json:"items"`
	// Bibs maps "INSTITUTION:bibId" to barcodes.
	Bibs map[string][]string `json:"bibs"`
}

type server struct {
	data   dataset
	apiKey string
	delay  time.Duration
	logger *slog.Logger
}

type row struct {
	ItemBarcode            string `json:"itemBarcode"`
	ItemAvailabilityStatus string `json:"itemAvailabilityStatus"`
	CustomerCode           string `json:"customerCode,omitempty"`
	ErrorMessage           any    `json:"errorMessage"`
}

func main() {
	addr := flag.String("addr", envOr("ADDR", ":8090"), "listen address")
	dataPath := flag.String("data", envOr("DATA_FILE", "data.json"), "fixture file")
	delay := flag.Duration("delay", 10*time.Second, "delay applied to slow items")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	raw, err := os.ReadFile(*dataPath)
	if err != nil {
		logger.Error("read fixtures", "error", err)
		os.Exit(1)
	}
	var data dataset
	if err := json.Unmarshal(raw, &data); err != nil {
		logger.Error("decode fixtures", "error", err)
		os.Exit(1)
	}

	s := &server{data: data, apiKey: os.Getenv("API_KEY"), delay: *delay, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sharedCollection/itemAvailabilityStatus", s.auth(s.itemAvailability))
	mux.HandleFunc("POST /sharedCollection/bibAvailabilityStatus", s.auth(s.bibAvailability))
	mux.HandleFunc("POST /searchService/search", s.auth(s.search))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	logger.Info("shared inventory mock listening", "addr", *addr, "items", len(data.Items))
	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func (s *server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("api_key") != s.apiKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *server) itemAvailability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Barcodes []string `json:"barcodes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	rows := make([]row, 0, len(req.Barcodes))
	slow := false
	for _, bc := range req.Barcodes {
		f, ok := s.data.Items[bc]
		if !ok {
			rows = append(rows, row{ItemBarcode: bc, ItemAvailabilityStatus: unknownBarcode})
			continue
		}
		slow = slow || f.Slow
		rows = append(rows, row{ItemBarcode: bc, ItemAvailabilityStatus: f.Status})
	}
	if slow {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
	}
	writeJSON(w, rows)
}

func (s *server) bibAvailability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BibliographicID string `json:"bibliographicId"`
		InstitutionID   string `json:"institutionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	barcodes, ok := s.data.Bibs[strings.ToUpper(req.InstitutionID)+":"+req.BibliographicID]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	rows := make([]row, 0, len(barcodes))
	for _, bc := range barcodes {
		f := s.data.Items[bc]
		rows = append(rows, row{ItemBarcode: bc, ItemAvailabilityStatus: f.Status, CustomerCode: f.CustomerCode})
	}
	writeJSON(w, rows)
}

func (s *server) search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FieldName  string `json:"fieldName"`
		FieldValue string `json:"fieldValue"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	type itemRow struct {
		Barcode      string `json:"barcode"`
		CustomerCode string `json:"customerCode"`
	}
	type resultRow struct {
		Barcode              string    `json:"barcode"`
		CustomerCode         string    `json:"customerCode"`
		SearchItemResultRows []itemRow `json:"searchItemResultRows"`
	}
	resp := struct {
		SearchResultRows []resultRow `json:"searchResultRows"`
	}{SearchResultRows: []resultRow{}}
	if f, ok := s.data.Items[req.FieldValue]; ok && strings.EqualFold(req.FieldName, "Barcode") && f.CustomerCode != "" {
		resp.SearchResultRows = append(resp.SearchResultRows, resultRow{
			Barcode:      req.FieldValue,
			CustomerCode: f.CustomerCode,
		})
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
