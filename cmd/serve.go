package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/watersupply-sim/watersupply-sim/sim"
	"github.com/watersupply-sim/watersupply-sim/sim/archive"
	"github.com/watersupply-sim/watersupply-sim/sim/trace"
)

var (
	listenAddr       string // HTTP listen address
	serveArchivePath string // optional SQLite archive for served runs
)

const (
	// maxRequestBytes bounds the size of a simulation request body.
	maxRequestBytes = 1 << 20
	// maxServedHorizonHours bounds the runs served synchronously over HTTP (one leap year).
	maxServedHorizonHours = 24 * 366
)

// apiServer serves simulations over HTTP. store may be nil.
type apiServer struct {
	store *archive.Store
}

// newRouter wires the HTTP routes.
func newRouter(s *apiServer) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v1/defaults", s.handleDefaults).Methods(http.MethodGet)
	r.HandleFunc("/v1/simulations", s.handleSimulate).Methods(http.MethodPost)
	r.HandleFunc("/v1/simulations", s.handleListRuns).Methods(http.MethodGet)
	r.HandleFunc("/v1/simulations/{id}", s.handleGetRun).Methods(http.MethodGet)
	return r
}

// handleDefaults returns the reference configuration.
func (s *apiServer) handleDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sim.DefaultConfig())
}

// simulationRequest is a configuration overlaid on the defaults plus run options.
type simulationRequest struct {
	sim.SimulationConfig
	TraceLevel string `json:"trace_level,omitempty"`
}

// handleSimulate runs one simulation synchronously and returns the full result.
func (s *apiServer) handleSimulate(w http.ResponseWriter, r *http.Request) {
	req := simulationRequest{SimulationConfig: sim.DefaultConfig()}
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "decoding request: "+err.Error())
		return
	}
	if req.HorizonHours > maxServedHorizonHours {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("horizon_hours must not exceed %d over HTTP, got %d", maxServedHorizonHours, req.HorizonHours))
		return
	}

	result, err := sim.RunContext(r.Context(), req.SimulationConfig, trace.TraceConfig{Level: trace.TraceLevel(req.TraceLevel)})
	if errors.Is(err, sim.ErrInvalidConfiguration) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	id := archive.NewRunID()
	if s.store != nil {
		if err := s.store.Save(r.Context(), id, result); err != nil {
			logrus.Errorf("archiving run %s: %v", id, err)
			writeError(w, http.StatusInternalServerError, "archiving run failed")
			return
		}
	}
	logrus.Infof("served run %s: horizon=%dh blockages=%d", id, result.Config.HorizonHours, len(result.Metrics.Blockages))
	writeJSON(w, http.StatusOK, newResultOutput(id, result))
}

// handleListRuns returns the archived run IDs, newest first.
func (s *apiServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "no archive configured")
		return
	}
	ids, err := s.store.ListIDs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

// handleGetRun returns an archived run summary and its blockages.
func (s *apiServer) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "no archive configured")
		return
	}
	id := mux.Vars(r)["id"]
	summary, err := s.store.Get(r.Context(), id)
	if errors.Is(err, archive.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	blockages, err := s.store.Blockages(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           summary.ID,
		"created_at":   summary.CreatedAt,
		"horizon":      summary.Horizon,
		"config_yaml":  summary.ConfigYAML,
		"well":         summary.Well,
		"treatment":    summary.Treatment,
		"transfer":     summary.Transfer,
		"unmet_demand": summary.UnmetDemand,
		"blockages":    blockages,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// serveCmd exposes the simulator over HTTP
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve simulations over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		s := &apiServer{}
		if serveArchivePath != "" {
			store, err := archive.Open(serveArchivePath)
			if err != nil {
				logrus.Fatalf("Unable to open archive: %v", err)
			}
			defer func() { _ = store.Close() }()
			s.store = store
		}

		server := &http.Server{
			Addr:              listenAddr,
			Handler:           newRouter(s),
			ReadHeaderTimeout: 10 * time.Second,
		}
		logrus.Infof("Listening on %s", listenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "HTTP listen address")
	serveCmd.Flags().StringVar(&serveArchivePath, "archive", "", "Archive served runs in this SQLite database")

	rootCmd.AddCommand(serveCmd)
}
