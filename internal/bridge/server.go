// Package bridge exposes the local HTTP surface the browser extension talks
// to: form-snapshot intake, vault CRUD and the fill-command queue. It binds
// to loopback only; the extension is the only intended client.
package bridge

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/asterisk-app/asterisk/internal/fill"
	"github.com/asterisk-app/asterisk/internal/model"
	"github.com/asterisk-app/asterisk/internal/vault"
)

// Server wires the bridge routes over the host's stores and queues.
type Server struct {
	vault    vault.Store
	snapshot *Cache[model.FormSnapshot]
	queue    *CommandQueue
	undo     *fill.UndoTracker
}

// NewServer creates a bridge server. The snapshot cache, queue and undo
// tracker are owned by the caller so the host can clear them on suspend.
func NewServer(vaultStore vault.Store, snapshot *Cache[model.FormSnapshot], queue *CommandQueue, undo *fill.UndoTracker) *Server {
	return &Server{vault: vaultStore, snapshot: snapshot, queue: queue, undo: undo}
}

// Router builds the chi router with CORS for extension requests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/v1/form-snapshots", s.getSnapshot)
	r.Post("/v1/form-snapshots", s.postSnapshot)

	r.Get("/v1/vault", s.listVault)
	r.Post("/v1/vault", s.setVaultItem)
	r.Delete("/v1/vault", s.deleteVaultItem)

	r.Get("/v1/fill-commands", s.listCommands)
	r.Post("/v1/fill-commands", s.pushCommand)
	r.Delete("/v1/fill-commands", s.ackCommand)

	r.Post("/v1/fill-results", s.recordResult)
	r.Post("/v1/undo", s.undoLast)

	return r
}

// fillResult is the extension's report after executing a command: the values
// each field held before and after. Old values stay in memory only, inside
// the undo tracker.
type fillResult struct {
	EntryID   string            `json:"entryId"`
	Domain    string            `json:"domain"`
	OldValues map[string]string `json:"oldValues"`
	NewValues map[string]string `json:"newValues"`
}

func (s *Server) getSnapshot(w http.ResponseWriter, _ *http.Request) {
	snapshot, ok := s.snapshot.Get()
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) postSnapshot(w http.ResponseWriter, r *http.Request) {
	var snapshot model.FormSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot body")
		return
	}
	s.snapshot.Put(snapshot)
	zap.L().Info("bridge: received form snapshot",
		zap.String("domain", snapshot.Domain),
		zap.Int("fields", len(snapshot.Fields)),
	)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listVault(w http.ResponseWriter, r *http.Request) {
	items, err := s.vault.List(r.Context())
	if err != nil {
		zap.L().Error("bridge: vault list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "vault unavailable")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) setVaultItem(w http.ResponseWriter, r *http.Request) {
	var item vault.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid vault item body")
		return
	}
	if err := s.vault.Set(r.Context(), item); err != nil {
		zap.L().Error("bridge: vault set failed",
			zap.String("key", item.Key),
			zap.Error(err),
		)
		writeError(w, http.StatusBadRequest, "could not store item")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) deleteVaultItem(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}
	if err := s.vault.Delete(r.Context(), key); err != nil {
		writeError(w, http.StatusNotFound, "no such item")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listCommands(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")
	writeJSON(w, http.StatusOK, s.queue.Pending(domain))
}

func (s *Server) pushCommand(w http.ResponseWriter, r *http.Request) {
	var cmd model.FillCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid fill command body")
		return
	}
	s.queue.Push(cmd)
	zap.L().Info("bridge: queued fill command",
		zap.String("command_id", cmd.ID),
		zap.String("target_domain", cmd.TargetDomain),
		zap.Int("fills", len(cmd.Fills)),
	)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ackCommand(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	s.queue.Ack(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) recordResult(w http.ResponseWriter, r *http.Request) {
	var result fillResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		writeError(w, http.StatusBadRequest, "invalid fill result body")
		return
	}
	s.undo.Record(result.EntryID, result.Domain, result.OldValues, result.NewValues)
	zap.L().Info("bridge: recorded fill result",
		zap.String("entry_id", result.EntryID),
		zap.String("domain", result.Domain),
		zap.Int("fields", len(result.NewValues)),
	)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) undoLast(w http.ResponseWriter, _ *http.Request) {
	cmd := s.undo.Undo()
	if cmd == nil {
		writeError(w, http.StatusNotFound, "nothing to undo")
		return
	}
	s.queue.Push(*cmd)
	zap.L().Info("bridge: queued undo command",
		zap.String("command_id", cmd.ID),
		zap.String("target_domain", cmd.TargetDomain),
	)
	writeJSON(w, http.StatusOK, cmd)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
