// Package api provides handlers for external APIs and interfaces
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/abelzeko/soilism/internal/entities"
	"github.com/abelzeko/soilism/internal/usecases"
	"github.com/go-chi/chi/v5"
)

// IngestPath is the push endpoint for network sensors
const IngestPath = "/update_sensor"

const shutdownTimeout = 20 * time.Second

// HTTPServer serves the dashboard, the plant API and the push ingest endpoint
type HTTPServer struct {
	engine  *usecases.IngestionEngine
	useCase *usecases.PlantUseCase
	hub     *WebsocketHub
}

// NewHTTPServer creates a new HTTP server. hub may be nil to disable /ws.
func NewHTTPServer(engine *usecases.IngestionEngine, useCase *usecases.PlantUseCase, hub *WebsocketHub) *HTTPServer {
	return &HTTPServer{engine: engine, useCase: useCase, hub: hub}
}

// Routes returns the router for every endpoint
func (s *HTTPServer) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Get("/", s.handleDashboard)
	mux.Get("/health", handleHealth)
	mux.Get("/plants", s.handleListPlants)
	mux.Post("/add", s.handleAddPlant)
	mux.Post("/delete/{id}", s.handleDeletePlant)
	mux.Post("/water/{id}", s.handleWaterPlant)
	mux.Post(IngestPath, s.handleUpdateSensor)
	if s.hub != nil {
		mux.Handle("/ws", s.hub)
	}
	return mux
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully
func (s *HTTPServer) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		IdleTimeout:       30 * time.Second,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutdown signal received, shutting down HTTP server...")
		if s.hub != nil {
			s.hub.Close()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Graceful shutdown failed: %v; forcing close", err)
			_ = srv.Close()
		}
		return <-errCh

	case err := <-errCh:
		return err
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "OK")
}

func (s *HTTPServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	plants, err := s.useCase.ListPlants()
	if err != nil {
		log.Printf("Error fetching plants: %v", err)
		http.Error(w, "failed to list plants", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := renderDashboard(&buf, plants); err != nil {
		log.Printf("Error rendering dashboard: %v", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (s *HTTPServer) handleListPlants(w http.ResponseWriter, r *http.Request) {
	plants, err := s.useCase.ListPlants()
	if err != nil {
		log.Printf("Error fetching plants: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list plants"})
		return
	}
	writeJSON(w, http.StatusOK, plantViews(plants))
}

type addPlantRequest struct {
	Name string `json:"name"`
	Soil string `json:"soil"`
}

func (s *HTTPServer) handleAddPlant(w http.ResponseWriter, r *http.Request) {
	var req addPlantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid plant data"})
		return
	}

	id, err := s.useCase.AddPlant(req.Name, req.Soil)
	var verr *entities.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error()})
		return
	}
	if err != nil {
		log.Printf("Error adding plant: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to add plant"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (s *HTTPServer) handleDeletePlant(w http.ResponseWriter, r *http.Request) {
	id, ok := plantID(w, r)
	if !ok {
		return
	}
	if err := s.useCase.DeletePlant(id); err != nil {
		log.Printf("Error deleting plant: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *HTTPServer) handleWaterPlant(w http.ResponseWriter, r *http.Request) {
	id, ok := plantID(w, r)
	if !ok {
		return
	}

	at, err := s.useCase.WaterPlant(id)
	if errors.Is(err, entities.ErrPlantNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error recording watering: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"lastWatered": at.Format(usecases.TimeLayout)})
}

type updateSensorResponse struct {
	Success bool            `json:"success"`
	Data    entities.Sample `json:"data"`
}

func (s *HTTPServer) handleUpdateSensor(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		log.Printf("Rejecting sensor push: %v", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid sensor values"})
		return
	}

	sample, err := s.engine.ApplyPushPayload(payload)
	var verr *entities.ValidationError
	if errors.As(err, &verr) {
		log.Printf("Rejecting sensor push: %v", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid sensor values"})
		return
	}
	if err != nil {
		log.Printf("Error applying sensor push: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to apply sample"})
		return
	}
	writeJSON(w, http.StatusOK, updateSensorResponse{Success: true, Data: sample})
}

type errorResponse struct {
	Error string `json:"error"`
}

// plantID parses the {id} path parameter, answering 404 when it is not an integer
func plantID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
