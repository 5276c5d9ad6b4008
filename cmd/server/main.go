package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/miretskiy/roundrobin/simulator"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development
		return true
	},
}

// Client message types
type ClientMessage struct {
	Type   string               `json:"type"`
	Config *simulator.SimConfig `json:"config,omitempty"`
}

// Server message types
type ServerMessage struct {
	Type      string                 `json:"type"`
	SessionID string                 `json:"sessionId,omitempty"`
	Running   *bool                  `json:"running,omitempty"`
	Config    *simulator.SimConfig   `json:"config,omitempty"`
	Report    *simulator.Report      `json:"report,omitempty"`
	State     map[string]interface{} `json:"state,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// simState manages one client's simulation and UI pacing
type simState struct {
	id      string
	sim     *simulator.Simulator
	running bool
	paused  bool
	mu      sync.Mutex
	stopCh  chan struct{}
}

func newSimState(config simulator.SimConfig) (*simState, error) {
	sim, err := simulator.NewSimulator(config)
	if err != nil {
		return nil, err
	}
	if err := sim.Reset(); err != nil {
		return nil, err
	}

	return &simState{
		id:     xid.New().String(),
		sim:    sim,
		stopCh: make(chan struct{}),
	}, nil
}

// start begins the simulation (sets running flag)
func (s *simState) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.paused = false
}

// pause pauses the simulation
func (s *simState) pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// reset restarts the simulation from t=0
func (s *simState) reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.paused = false
	return s.sim.Reset()
}

// updateConfig updates the configuration (restarts the simulation)
func (s *simState) updateConfig(config simulator.SimConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.UpdateConfig(config)
}

// isRunning returns true if simulation is running and not paused
func (s *simState) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && !s.paused
}

// getConfig returns the current simulator configuration
func (s *simState) getConfig() simulator.SimConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Config()
}

// step advances simulation by delta virtual ms (called by UI ticker).
// It returns true once the configured length has been simulated.
func (s *simState) step(delta int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running && !s.paused {
		remaining := s.sim.Config().SimulationLength - s.sim.VirtualTime()
		s.sim.StepByDelta(min(delta, remaining))
	}
	if s.sim.IsFinished() {
		s.running = false
		return true
	}
	return false
}

// report returns the report for the time simulated so far
func (s *simState) report() simulator.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Report()
}

// state returns current state
func (s *simState) state() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.State()
}

// stop signals the UI loop to stop
func (s *simState) stop() {
	close(s.stopCh)
}

// server tracks the live sessions so they can be inspected over HTTP
type server struct {
	stepMs   int64
	tick     time.Duration
	mu       sync.Mutex
	sessions map[string]*simState
}

func newServer(stepMs int64, tick time.Duration) *server {
	return &server{
		stepMs:   stepMs,
		tick:     tick,
		sessions: make(map[string]*simState),
	}
}

func (srv *server) register(state *simState) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.sessions[state.id] = state
}

func (srv *server) unregister(state *simState) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	delete(srv.sessions, state.id)
	deletePrometheusSession(state.id)
}

func (srv *server) lookup(id string) (*simState, bool) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	state, ok := srv.sessions[id]
	return state, ok
}

// uiUpdateLoop periodically advances the simulation and sends updates to the client
func (srv *server) uiUpdateLoop(conn *safeConn, state *simState) {
	ticker := time.NewTicker(srv.tick)
	defer ticker.Stop()

	logger := log.WithField("session", state.id)
	for {
		select {
		case <-state.stopCh:
			logger.Debug("UI update loop stopping")
			return

		case <-ticker.C:
			if !state.isRunning() {
				continue
			}

			finished := state.step(srv.stepMs)

			report := state.report()
			updatePrometheusMetrics(state.id, report, state.state())
			if err := conn.WriteJSON(ServerMessage{Type: "report", Report: &report}); err != nil {
				logger.Errorf("Error sending report: %v", err)
				return
			}

			if err := conn.WriteJSON(ServerMessage{Type: "state", State: state.state()}); err != nil {
				logger.Errorf("Error sending state: %v", err)
				return
			}

			if finished {
				logger.Infof("Simulation finished at t=%d", report.SimulatedTime)
				if err := conn.WriteJSON(statusMessage(state)); err != nil {
					logger.Errorf("Error sending status: %v", err)
					return
				}
			}
		}
	}
}

func statusMessage(state *simState) ServerMessage {
	running := state.isRunning()
	cfg := state.getConfig()
	return ServerMessage{
		Type:      "status",
		SessionID: state.id,
		Running:   &running,
		Config:    &cfg,
	}
}

// safeConn wraps a WebSocket connection with a mutex to prevent concurrent writes
type safeConn struct {
	*websocket.Conn
	writeMu sync.Mutex
}

func (sc *safeConn) WriteJSON(v interface{}) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	return sc.Conn.WriteJSON(v)
}

func (srv *server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("Error upgrading connection: %v", err)
		return
	}
	defer conn.Close()

	// Wrap connection with mutex for safe concurrent writes
	safeConn := &safeConn{Conn: conn}

	state, err := newSimState(simulator.DefaultConfig())
	if err != nil {
		log.Errorf("Error creating simulator: %v", err)
		return
	}
	srv.register(state)
	defer srv.unregister(state)

	logger := log.WithField("session", state.id)
	logger.Info("Client connected")

	if err := safeConn.WriteJSON(statusMessage(state)); err != nil {
		logger.Errorf("Error sending status: %v", err)
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.uiUpdateLoop(safeConn, state)
	}()

	// Handle messages from client
	for {
		var msg ClientMessage
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("Error reading message: %v", err)
			}
			break
		}

		logger.Debugf("Received command: %s", msg.Type)

		reply := func() {
			if err := safeConn.WriteJSON(statusMessage(state)); err != nil {
				logger.Errorf("Error sending status: %v", err)
			}
		}

		switch msg.Type {
		case "start":
			state.start()
			logger.Info("Simulator started")
			reply()

		case "pause":
			state.pause()
			logger.Info("Simulator paused")
			reply()

		case "reset":
			if err := state.reset(); err != nil {
				logger.Errorf("Error resetting simulator: %v", err)
			}
			logger.Info("Simulator reset")
			reply()

		case "config_update":
			if msg.Config == nil {
				continue
			}
			if err := state.updateConfig(*msg.Config); err != nil {
				logger.Warnf("Rejected config update: %v", err)
				if err := safeConn.WriteJSON(ServerMessage{Type: "error", SessionID: state.id, Error: err.Error()}); err != nil {
					logger.Errorf("Error sending error: %v", err)
				}
				continue
			}
			logger.Infof("Config updated: %+v", *msg.Config)
			reply()

		default:
			logger.Warnf("Unknown command: %s", msg.Type)
		}
	}

	// Clean up. The update loop must be gone before unregister drops the
	// session's metric series, or its last tick would recreate them.
	state.stop()
	conn.Close()
	<-done
	logger.Info("Client disconnected")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Error encoding response: %v", err)
	}
}

func (srv *server) listSessions(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	ids := make([]string, 0, len(srv.sessions))
	for id := range srv.sessions {
		ids = append(ids, id)
	}
	srv.mu.Unlock()

	writeJSON(w, ids)
}

func (srv *server) sessionState(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	state, ok := srv.lookup(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	report := state.report()
	writeJSON(w, ServerMessage{
		Type:      "state",
		SessionID: id,
		Report:    &report,
		State:     state.state(),
	})
}

func (srv *server) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", srv.handleWebSocket)
	r.HandleFunc("/api/sessions", srv.listSessions).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}", srv.sessionState).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func quitHandler(w http.ResponseWriter, r *http.Request) {
	log.Info("Shutdown requested via /quitquitquit")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Server shutting down...")

	go func() {
		time.Sleep(100 * time.Millisecond)
		log.Info("Server stopped")
		os.Exit(0)
	}()
}

func envInt(name string, def int64) int64 {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		log.Warnf("Ignoring invalid %s=%q", name, raw)
		return def
	}
	return v
}

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Error loading .env: %v", err)
	}

	addr := os.Getenv("RRSIM_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	if os.Getenv("RRSIM_DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}

	// Each UI tick advances the simulation by RRSIM_STEP_MS virtual ms
	srv := newServer(envInt("RRSIM_STEP_MS", 1000), time.Duration(envInt("RRSIM_TICK_MS", 500))*time.Millisecond)

	initPrometheusMetrics()
	r := srv.router()
	r.HandleFunc("/quitquitquit", quitHandler)

	log.Infof("Server starting on http://localhost%s", addr)
	log.Infof("WebSocket endpoint: ws://localhost%s/ws", addr)
	log.Infof("Shutdown endpoint: http://localhost%s/quitquitquit", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
