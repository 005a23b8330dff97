// Package viewer serves a computed schedule over HTTP for browser and
// tooling consumers, alongside health and prometheus endpoints.
package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jason-marshall/defense-pm-tool-sub005/internal/cpm"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/ctxlog"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/graph"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/project"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/service"
)

// maxBody caps POST /graph request bodies.
const maxBody = 32 << 20

// --- Graph types ---

type GraphNode struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Duration int    `json:"duration"`
	Wave     int    `json:"wave"`
	cpm.Result
}

type GraphEdge struct {
	From       string        `json:"from"`
	To         string        `json:"to"`
	Type       graph.DepType `json:"type"`
	Lag        int           `json:"lag"`
	IsCritical bool          `json:"is_critical"`
}

type GraphMetadata struct {
	Name            string `json:"name,omitempty"`
	CreatedAt       string `json:"created_at"`
	TotalActivities int    `json:"total_activities"`
	TotalWaves      int    `json:"total_waves"`
	ProjectDuration int    `json:"project_duration"`
}

type Graph struct {
	Nodes        []GraphNode   `json:"nodes"`
	Edges        []GraphEdge   `json:"edges"`
	CriticalPath []string      `json:"critical_path"`
	Metadata     GraphMetadata `json:"metadata"`
}

// ToGraph converts a schedule and its dependencies into the normalised
// Graph the viewer serves. Nodes and edges keep input order; deps must be
// the dependency list s was calculated from.
func ToGraph(name string, s *cpm.Schedule, deps []graph.Dependency, names map[string]string) *Graph {
	waves := s.Waves()
	waveOf := make(map[string]int, len(s.ActivityIDs()))
	for _, w := range waves {
		for _, id := range w.ActivityIDs {
			waveOf[id] = w.Index
		}
	}

	rows := s.Rows()
	nodes := make([]GraphNode, 0, len(rows))
	for _, row := range rows {
		nodes = append(nodes, GraphNode{
			ID:       row.ID,
			Name:     names[row.ID],
			Duration: row.Duration,
			Wave:     waveOf[row.ID],
			Result:   row.Result,
		})
	}

	edges := make([]GraphEdge, 0, len(deps))
	for k, d := range deps {
		edges = append(edges, GraphEdge{
			From:       d.Predecessor,
			To:         d.Successor,
			Type:       d.Type.Normalize(),
			Lag:        d.Lag,
			IsCritical: s.IsCriticalEdge(k),
		})
	}

	return &Graph{
		Nodes:        nodes,
		Edges:        edges,
		CriticalPath: s.CriticalPath(),
		Metadata: GraphMetadata{
			Name:            name,
			CreatedAt:       time.Now().UTC().Format(time.RFC3339),
			TotalActivities: len(nodes),
			TotalWaves:      len(waves),
			ProjectDuration: s.ProjectDuration(),
		},
	}
}

// --- HTTP server ---

// Server holds the current graph and recalculates it on POST.
type Server struct {
	mu     sync.RWMutex
	graph  *Graph
	svc    *service.Service
	logger *slog.Logger
}

// NewServer creates a Server backed by svc. A nil logger uses slog.Default.
func NewServer(svc *service.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, logger: logger}
}

// SetGraph replaces the served graph.
func (s *Server) SetGraph(g *Graph) {
	s.mu.Lock()
	s.graph = g
	s.mu.Unlock()
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/graph", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			s.handlePostGraph(w, r)
		case http.MethodGet:
			s.handleGetGraph(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r.WithContext(ctxlog.WithLogger(r.Context(), s.logger)))
	})
}

func (s *Server) handlePostGraph(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, err := project.Parse(data, project.FormatJSON, r.URL.Query().Get("query"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	deps := file.EngineDependencies()
	sched, err := s.svc.Calculate(r.Context(), file.EngineActivities(), deps)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	g := ToGraph(file.Name, sched, deps, file.Names())
	s.SetGraph(g)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(g)
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	g := s.graph
	s.mu.RUnlock()

	if g == nil {
		http.Error(w, "no graph loaded", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(g)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}

// Serve listens on port and serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", port, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("viewer listening", "addr", fmt.Sprintf("http://localhost:%d", port))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
