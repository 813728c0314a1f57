package console

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/mockdeck/internal/ports"
	"github.com/getmockd/mockdeck/pkg/console/engineclient"
	"github.com/getmockd/mockdeck/pkg/history"
	"github.com/getmockd/mockdeck/pkg/httputil"
	"github.com/getmockd/mockdeck/pkg/logtail"
	"github.com/getmockd/mockdeck/pkg/specfile"
	"github.com/getmockd/mockdeck/pkg/supervisor"
)

// Defaults for POST /server/start when the body omits them.
const (
	DefaultEnginePort = 8000
	DefaultEngineHost = "0.0.0.0"
)

// maxUploadBytes bounds spec uploads. OpenAPI documents are text; this is
// far above any realistic spec size.
const maxUploadBytes = 32 << 20

// session resolves the caller's session from the request header.
func (c *Console) session(r *http.Request) *Session {
	return c.sessions.GetOrCreate(r.Header.Get(SessionHeader))
}

// handleHealth handles GET /health.
func (c *Console) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, map[string]any{
		"status": "ok",
		"uptime": c.Uptime(),
	})
}

// engineState is the engine portion of a status response.
type engineState struct {
	Running  bool   `json:"running"`
	PID      int    `json:"pid,omitempty"`
	Port     int    `json:"port,omitempty"`
	Host     string `json:"host,omitempty"`
	BaseURL  string `json:"baseUrl,omitempty"`
	Ready    bool   `json:"ready"`
	SpecPath string `json:"specPath,omitempty"`
}

func (c *Console) engineState(sess *Session) engineState {
	specPath, _ := sess.Spec()
	port, host, ready := sess.run()
	state := engineState{
		Running:  sess.sup.Running(),
		SpecPath: specPath,
	}
	if state.Running {
		state.PID = sess.sup.PID()
		state.Port = port
		state.Host = host
		state.BaseURL = supervisor.BaseURL(host, port)
		state.Ready = ready
	}
	return state
}

// handleStatus handles GET /status. A child that died on its own is only
// noticed here, lazily: a pending run with no live process is closed out
// as exited.
func (c *Console) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess := c.session(r)
	state := c.engineState(sess)
	if !state.Running {
		c.recordStop(sess, history.OutcomeExited)
	}
	httputil.WriteOK(w, map[string]any{
		"status":  "ok",
		"version": c.version,
		"uptime":  c.Uptime(),
		"session": sess.ID,
		"engine":  state,
	})
}

// handleUploadSpec handles POST /specs. Accepts either a multipart form
// with a "file" field, or the document itself as the request body (with
// the name taken from the "name" query parameter).
func (c *Console) handleUploadSpec(w http.ResponseWriter, r *http.Request) {
	sess := c.session(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var (
		path string
		err  error
	)

	contentType := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if strings.HasPrefix(mediaType, "multipart/") {
		file, header, ferr := r.FormFile("file")
		if ferr != nil {
			httputil.WriteBadRequest(w, "invalid_upload", "multipart upload requires a 'file' field")
			return
		}
		defer func() { _ = file.Close() }()
		path, err = specfile.Store(header.Filename, header.Header.Get("Content-Type"), file)
	} else {
		path, err = specfile.Store(r.URL.Query().Get("name"), contentType, r.Body)
	}

	if err != nil {
		c.log.Error("spec upload failed", "error", err)
		httputil.WriteInternalError(w, "upload_failed", "Failed to store the uploaded document")
		return
	}

	summary := specfile.Summarize(path)
	sess.SetSpec(path, summary)
	c.log.Info("spec uploaded", "session", sess.ID, "path", path)

	httputil.WriteCreated(w, map[string]any{
		"path":    path,
		"summary": summary,
	})
}

// handleCurrentSpec handles GET /specs/current.
func (c *Console) handleCurrentSpec(w http.ResponseWriter, r *http.Request) {
	sess := c.session(r)
	path, summary := sess.Spec()
	if path == "" {
		httputil.WriteNotFound(w, "no_spec", "No spec has been uploaded in this session")
		return
	}
	httputil.WriteOK(w, map[string]any{
		"path":    path,
		"summary": summary,
	})
}

// startRequest is the body of POST /server/start.
type startRequest struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// handleStartServer handles POST /server/start. Launches the engine for
// the session's uploaded spec, replacing any previous child, then waits
// for the engine's health endpoint before answering.
func (c *Console) handleStartServer(w http.ResponseWriter, r *http.Request) {
	sess := c.session(r)

	// An empty body means "use defaults"; anything else malformed is a
	// client error.
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteBadRequest(w, "invalid_json", "Invalid JSON in request body")
		return
	}
	if req.Port == 0 {
		req.Port = DefaultEnginePort
	}
	if req.Host == "" {
		req.Host = DefaultEngineHost
	}

	specPath, _ := sess.Spec()
	if specPath == "" {
		httputil.WriteBadRequest(w, "no_spec", "Upload a spec before starting the server")
		return
	}

	sess.opMu.Lock()
	defer sess.opMu.Unlock()

	// Replacing a running engine: stop it first so its port frees up
	// before the preflight check.
	if sess.sup.Running() {
		outcome := c.stopOutcome(sess)
		if err := sess.sup.Stop(); err != nil {
			httputil.WriteInternalError(w, "stop_failed", "Failed to stop the previous engine")
			return
		}
		c.recordStop(sess, outcome)
	}

	if err := ports.Check(req.Port); err != nil {
		httputil.WriteConflict(w, "port_in_use",
			"Port "+strconv.Itoa(req.Port)+" is already in use")
		return
	}

	if err := sess.sup.Start(r.Context(), specPath, req.Port, req.Host); err != nil {
		c.writeStartError(w, err)
		return
	}

	baseURL := supervisor.BaseURL(req.Host, req.Port)
	ready := true
	if err := c.prober.Wait(r.Context(), baseURL+"/health"); err != nil {
		// Soft failure: the child keeps running and the caller sees
		// ready=false with the log tail for diagnosis.
		c.log.Warn("engine did not become ready", "session", sess.ID, "error", err)
		ready = false
	}

	runID := uuid.NewString()
	sess.setRun(runID, req.Port, req.Host, ready)
	if c.history != nil {
		err := c.history.RecordStart(r.Context(), history.Run{
			ID:        runID,
			SessionID: sess.ID,
			SpecPath:  specPath,
			Port:      req.Port,
			Host:      req.Host,
			StartedAt: time.Now(),
		})
		if err != nil {
			c.log.Warn("failed to record run start", "error", err)
		}
	}

	httputil.WriteOK(w, map[string]any{
		"running": true,
		"ready":   ready,
		"pid":     sess.sup.PID(),
		"port":    req.Port,
		"host":    req.Host,
		"baseUrl": baseURL,
	})
}

// writeStartError maps launch failures to status codes.
func (c *Console) writeStartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, supervisor.ErrDependencyMissing):
		httputil.WriteFailedDependency(w, "dependency_missing", err.Error())
	case errors.Is(err, supervisor.ErrScriptNotFound):
		httputil.WriteNotFound(w, "script_not_found", err.Error())
	default:
		c.log.Error("engine start failed", "error", err)
		httputil.WriteInternalError(w, "start_failed", "Failed to start the engine")
	}
}

// handleStopServer handles POST /server/stop. Idempotent.
func (c *Console) handleStopServer(w http.ResponseWriter, r *http.Request) {
	sess := c.session(r)

	sess.opMu.Lock()
	defer sess.opMu.Unlock()

	outcome := c.stopOutcome(sess)
	if err := sess.sup.Stop(); err != nil {
		httputil.WriteInternalError(w, "stop_failed", "Failed to stop the engine")
		return
	}
	c.recordStop(sess, outcome)

	httputil.WriteOK(w, map[string]any{"stopped": true})
}

// handleServerLogs handles GET /server/logs. The tail size is capped so
// responses stay bounded no matter how chatty the engine is.
func (c *Console) handleServerLogs(w http.ResponseWriter, r *http.Request) {
	sess := c.session(r)

	maxBytes := int64(logtail.DefaultMaxBytes)
	if raw := r.URL.Query().Get("maxBytes"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			httputil.WriteBadRequest(w, "invalid_max_bytes", "maxBytes must be a positive integer")
			return
		}
		if n < maxBytes {
			maxBytes = n
		}
	}

	httputil.WriteOK(w, map[string]any{
		"content": logtail.Tail(sess.sup.LogPath(), maxBytes),
	})
}

// handleSpecInfo handles GET /spec/info. Prefers the running engine's own
// answer; falls back to the locally parsed summary.
func (c *Console) handleSpecInfo(w http.ResponseWriter, r *http.Request) {
	sess := c.session(r)
	path, summary := sess.Spec()
	if path == "" {
		httputil.WriteNotFound(w, "no_spec", "No spec has been uploaded in this session")
		return
	}

	if client := c.engineClient(sess); client != nil {
		info, err := client.Info(r.Context())
		if err == nil {
			httputil.WriteOK(w, map[string]any{"source": "engine", "info": info})
			return
		}
		c.log.Debug("engine info query failed", "engine", client.BaseURL(), "error", err)
	}

	httputil.WriteOK(w, map[string]any{
		"source": "local",
		"info": map[string]any{
			"title":       summary.Title,
			"version":     summary.Version,
			"description": summary.Description,
		},
	})
}

// handleSpecEndpoints handles GET /spec/endpoints, with the same
// engine-first, local-fallback policy as /spec/info.
func (c *Console) handleSpecEndpoints(w http.ResponseWriter, r *http.Request) {
	sess := c.session(r)
	path, summary := sess.Spec()
	if path == "" {
		httputil.WriteNotFound(w, "no_spec", "No spec has been uploaded in this session")
		return
	}

	if client := c.engineClient(sess); client != nil {
		eps, err := client.Endpoints(r.Context())
		if err == nil {
			httputil.WriteOK(w, map[string]any{"source": "engine", "endpoints": eps})
			return
		}
		c.log.Debug("engine endpoints query failed", "engine", client.BaseURL(), "error", err)
	}

	httputil.WriteOK(w, map[string]any{
		"source":    "local",
		"endpoints": summary.Endpoints,
	})
}

// engineClient returns a client for the session's running engine, or nil
// when nothing is running.
func (c *Console) engineClient(sess *Session) *engineclient.Client {
	if !sess.sup.Running() {
		return nil
	}
	base := sess.BaseURL()
	if base == "" {
		return nil
	}
	return engineclient.New(base, engineclient.WithTimeout(3*time.Second))
}

// handleHistory handles GET /history.
func (c *Console) handleHistory(w http.ResponseWriter, r *http.Request) {
	if c.history == nil {
		httputil.WriteServiceUnavailable(w, "history_unavailable", "Run history is not available")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteBadRequest(w, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := c.history.Recent(r.Context(), limit)
	if err != nil {
		c.log.Error("history query failed", "error", err)
		httputil.WriteInternalError(w, "history_failed", "Failed to read run history")
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	httputil.WriteOK(w, map[string]any{"runs": runs})
}

// sessionInfo is one entry in the GET /sessions listing.
type sessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Running   bool      `json:"running"`
	SpecPath  string    `json:"specPath,omitempty"`
}

// handleListSessions handles GET /sessions.
func (c *Console) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := c.sessions.All()
	out := make([]sessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		specPath, _ := sess.Spec()
		out = append(out, sessionInfo{
			ID:        sess.ID,
			CreatedAt: sess.CreatedAt,
			Running:   sess.sup.Running(),
			SpecPath:  specPath,
		})
	}
	httputil.WriteOK(w, map[string]any{"sessions": out})
}

// handleDeleteSession handles DELETE /sessions/{id}. Tearing a session
// down stops its engine child.
func (c *Console) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, ok := c.sessions.Delete(id)
	if !ok {
		httputil.WriteNotFound(w, "session_not_found", "No such session")
		return
	}

	sess.opMu.Lock()
	defer sess.opMu.Unlock()
	outcome := c.stopOutcome(sess)
	if err := sess.sup.Stop(); err != nil {
		c.log.Warn("error stopping engine during session delete", "session", id, "error", err)
	}
	c.recordStop(sess, outcome)

	httputil.WriteNoContent(w)
}

// handleIndex serves the minimal embedded console page.
func (c *Console) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexPage))
}
