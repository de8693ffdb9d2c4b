// Package web hosts a patch over HTTP: a JSON/SVG read surface, mutation
// endpoints that drive the store, and an SSE stream of scene changes.
// MemStore and Scene are single-threaded, so every handler that touches
// them holds the server mutex.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/patchwire/patchwire/pkg/geometry"
	"github.com/patchwire/patchwire/pkg/graph"
	"github.com/patchwire/patchwire/pkg/logging"
	"github.com/patchwire/patchwire/pkg/pubsub"
	"github.com/patchwire/patchwire/pkg/render"
	"github.com/patchwire/patchwire/pkg/scene"
)

// Server hosts a store and its scene over HTTP.
type Server struct {
	router    *mux.Router
	publisher pubsub.Publisher

	mu    sync.Mutex
	store *graph.MemStore
	scene *scene.Scene
}

// NewServer creates a server around an existing store and scene and
// bridges the scene's outward signals onto the SSE publisher.
func NewServer(store *graph.MemStore, sc *scene.Scene) *Server {
	ssePublisher := pubsub.NewSSEPublisher()
	ssePublisher.ConfigureTopic("scene", pubsub.TopicConfig{BufferSize: 10})
	ssePublisher.ConfigureTopic("node_moved", pubsub.TopicConfig{BufferSize: 10})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: ssePublisher,
		store:     store,
		scene:     sc,
	}

	sc.HandleModified(func() {
		s.publishSceneSummary("modified")
	})
	sc.HandleNodeMoved(func(id graph.NodeID, pos geometry.Point) {
		if err := s.publisher.Publish("node_moved", "moved", pubsub.NodeMoved{
			Node: string(id), X: pos.X, Y: pos.Y,
		}); err != nil {
			logging.Warn("failed to publish node move", "error", err)
		}
	})

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestMiddleware)

	s.router.HandleFunc("/api/subscribe/scene", s.handleSubscribeScene).Methods("GET")

	s.router.HandleFunc("/api/scene", s.handleScene).Methods("GET")
	s.router.HandleFunc("/api/scene.svg", s.handleSceneSVG).Methods("GET")
	s.router.HandleFunc("/api/orientation", s.handleSetOrientation).Methods("POST")

	s.router.HandleFunc("/api/nodes", s.handleAddNode).Methods("POST")
	s.router.HandleFunc("/api/nodes/{id}", s.handleDeleteNode).Methods("DELETE")
	s.router.HandleFunc("/api/nodes/{id}/position", s.handleSetPosition).Methods("POST")
	s.router.HandleFunc("/api/nodes/{id}/click", s.handleClick).Methods("POST")

	s.router.HandleFunc("/api/connections", s.handleConnect).Methods("POST")
	s.router.HandleFunc("/api/connections", s.handleDisconnect).Methods("DELETE")

	s.router.HandleFunc("/api/draft", s.handleStartDraft).Methods("POST")
	s.router.HandleFunc("/api/draft", s.handleMoveDraft).Methods("PUT")
	s.router.HandleFunc("/api/draft", s.handleResetDraft).Methods("DELETE")
}

// Handler returns the root handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the web server on the specified port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("starting web server", "url", fmt.Sprintf("http://localhost%s", addr))
	return http.ListenAndServe(addr, s.router)
}

// Close releases the SSE publisher.
func (s *Server) Close() error {
	return s.publisher.Close()
}

func (s *Server) publishSceneSummary(eventType string) {
	summary := pubsub.SceneSummary{
		Nodes:       s.scene.NodeCount(),
		Connections: s.scene.ConnectionCount(),
		Orientation: s.scene.Orientation().String(),
	}
	if err := s.publisher.Publish("scene", eventType, summary); err != nil {
		logging.Warn("failed to publish scene summary", "error", err)
	}
}

// sceneState is the read-surface document: store contents, the scene's
// presentation state, and the computed visual geometry.
type sceneState struct {
	graph.Snapshot
	Orientation string       `json:"orientation"`
	Visuals     sceneVisuals `json:"visuals"`
}

type sceneVisuals struct {
	Nodes []nodeVisualState `json:"nodes"`
	Wires []wireState       `json:"wires"`
}

type nodeVisualState struct {
	ID       graph.NodeID   `json:"id"`
	Position geometry.Point `json:"position"`
	Size     geometry.Size  `json:"size"`
}

// wireState carries a connection's computed endpoints. Wires whose
// endpoints do not resolve are omitted, the JSON equivalent of
// render-nothing.
type wireState struct {
	ID    graph.ConnectionID `json:"id"`
	Out   geometry.Point     `json:"out"`
	In    geometry.Point     `json:"in"`
	Label string             `json:"label,omitempty"`
	Color string             `json:"color,omitempty"`
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	state := sceneState{
		Snapshot:    s.store.Snapshot(),
		Orientation: s.scene.Orientation().String(),
	}
	s.scene.NodeVisuals(func(nv *scene.NodeVisual) {
		state.Visuals.Nodes = append(state.Visuals.Nodes, nodeVisualState{
			ID:       nv.ID(),
			Position: nv.Position(),
			Size:     nv.Size(),
		})
	})
	s.scene.ConnectionVisuals(func(cv *scene.ConnectionVisual) {
		out, in, ok := cv.Endpoints()
		if !ok {
			return
		}
		state.Visuals.Wires = append(state.Visuals.Wires, wireState{
			ID: cv.ID(), Out: out, In: in,
			Label: cv.Label(), Color: cv.Color(),
		})
	})
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleSceneSVG(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	svg := render.RenderSVG(s.scene)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "image/svg+xml")
	fmt.Fprint(w, svg)
}

func (s *Server) handleSetOrientation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Orientation string `json:"orientation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	o, ok := scene.ParseOrientation(req.Orientation)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown orientation %q", req.Orientation))
		return
	}

	s.mu.Lock()
	s.scene.SetOrientation(o)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"orientation": o.String()})
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var spec graph.NodeSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	id, err := s.store.AddNode(spec)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": string(id)})
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id := graph.NodeID(mux.Vars(r)["id"])

	s.mu.Lock()
	known := s.store.HasNode(id)
	if known {
		s.store.DeleteNode(id)
	}
	s.mu.Unlock()

	if !known {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown node %s", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetPosition(w http.ResponseWriter, r *http.Request) {
	id := graph.NodeID(mux.Vars(r)["id"])
	var p geometry.Point
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	known := s.store.HasNode(id)
	if known {
		s.store.SetPosition(id, p)
	}
	s.mu.Unlock()

	if !known {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown node %s", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClick ends a pointer interaction on a node. A click after
// position updates is what turns the accumulated drag into a single
// node_moved event.
func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	id := graph.NodeID(mux.Vars(r)["id"])

	s.mu.Lock()
	s.scene.OnNodeClicked(id)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var c graph.ConnectionID
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	err := s.store.Connect(c)
	if err == nil {
		s.scene.ResetDraftConnection()
	}
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	var c graph.ConnectionID
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	s.store.Disconnect(c)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartDraft(w http.ResponseWriter, r *http.Request) {
	var c graph.ConnectionID
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if c.Complete() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("draft must have exactly one bound side"))
		return
	}
	if !c.OutNodeID.Valid() && !c.InNodeID.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("draft must have one bound side"))
		return
	}

	s.mu.Lock()
	s.scene.MakeDraftConnection(c)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleMoveDraft(w http.ResponseWriter, r *http.Request) {
	var p geometry.Point
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	draft := s.scene.DraftConnection()
	if draft != nil {
		draft.SetFreeEnd(p)
	}
	s.mu.Unlock()

	if draft == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("no draft connection"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetDraft(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.scene.ResetDraftConnection()
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubscribeScene(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Initial comment establishes the stream (Safari compatibility).
	fmt.Fprintf(w, ": connected\n\n")
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	sub, err := s.publisher.Subscribe(r.Context(), "scene")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.Debug("SSE client gone", "error", err)
			return
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

// Reload replaces the store contents, used by the document watcher.
func (s *Server) Reload(snap graph.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Replace(snap); err != nil {
		return err
	}
	s.publishSceneSummary("reset")
	return nil
}

// SnapshotScene returns the current store contents.
func (s *Server) SnapshotScene() graph.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
