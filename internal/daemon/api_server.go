package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"printflow/internal/api"
	"printflow/internal/config"
	"printflow/internal/logging"
	"printflow/internal/services"
	"printflow/internal/task"
)

// Headers carrying the caller identity set by the upstream identity provider.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorName = "X-Actor-Name"
	HeaderActorRole = "X-Actor-Role"
)

const maxBodyBytes = 1 << 20

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logging.NewComponentLogger(logger, "api"),
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(cfg.Paths.APIToken),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes(token string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestContext)
	r.Use(authMiddleware(token))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/policy", s.handlePolicy)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleCreateTask)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetTask)
				r.Patch("/", s.handleUpdateTask)
				r.Delete("/", s.handleDeleteTask)
				r.Post("/status", s.handleStatusChange)
				r.Post("/comments", s.handleComment)
				r.Get("/next-statuses", s.handleNextStatuses)
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", s.handleListNotifications)
			r.Delete("/", s.handleClearNotifications)
			r.Post("/read-all", s.handleReadAll)
			r.Post("/{id}/read", s.handleRead)
		})
	})
	return r
}

// requestContext copies the request id and caller role into the context and
// logs each request once it completes.
func (s *apiServer) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := services.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		ctx = services.WithActorRole(ctx, strings.TrimSpace(r.Header.Get(HeaderActorRole)))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))
		logging.WithContext(ctx, s.logger).Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Duration("duration", time.Since(started)),
		)
	})
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

// address returns the bound address once listening, else the configured bind.
func (s *apiServer) address() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	counts := make(map[string]int, len(status.TaskCounts))
	for key, count := range status.TaskCounts {
		counts[string(key)] = count
	}
	writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:       status.Running,
		PID:           status.PID,
		DatabasePath:  status.DatabasePath,
		LockFilePath:  status.LockFilePath,
		APIBind:       status.APIBind,
		TaskCounts:    counts,
		Unread:        status.Unread,
		Notifications: status.Notifications,
	})
}

func (s *apiServer) handlePolicy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.PolicyResponse{Rules: s.tasks().Policy()})
}

func (s *apiServer) handleListTasks(w http.ResponseWriter, r *http.Request) {
	items, err := s.tasks().List(r.Context(), api.TaskQueryFromValues(r.URL.Query()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.TaskListResponse{Items: items})
}

func (s *apiServer) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req api.CreateTaskRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.tasks().Create(r.Context(), req, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.TaskResponse{Task: created})
}

func (s *apiServer) handleGetTask(w http.ResponseWriter, r *http.Request) {
	item, err := s.tasks().Describe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.TaskResponse{Task: item})
}

func (s *apiServer) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req api.UpdateTaskRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.tasks().Update(r.Context(), chi.URLParam(r, "id"), req, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.TaskResponse{Task: updated})
}

func (s *apiServer) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleStatusChange(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req api.StatusChangeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.tasks().Move(r.Context(), chi.URLParam(r, "id"), req, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleComment(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req api.CommentRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	note, err := s.tasks().Comment(r.Context(), chi.URLParam(r, "id"), req, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.NoteResponse{Note: note})
}

func (s *apiServer) handleNextStatuses(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("role")
	if strings.TrimSpace(raw) == "" {
		raw = r.Header.Get(HeaderActorRole)
	}
	role, ok := task.ParseRole(raw)
	if !ok {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "parse role", "unknown role "+strings.TrimSpace(raw), nil))
		return
	}
	resp, err := s.tasks().Next(r.Context(), chi.URLParam(r, "id"), role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.inbox().List(r.URL.Query().Get("recipient")))
}

func (s *apiServer) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	if err := s.inbox().Clear(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleReadAll(w http.ResponseWriter, r *http.Request) {
	if err := s.inbox().MarkAllRead(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleRead(w http.ResponseWriter, r *http.Request) {
	if err := s.inbox().MarkRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) tasks() *api.TaskService {
	return s.daemon.runtime.Tasks
}

func (s *apiServer) inbox() *api.NotificationService {
	return s.daemon.runtime.Inbox
}

func actorFromRequest(r *http.Request) (task.Actor, error) {
	return api.ParseActor(
		r.Header.Get(HeaderActorID),
		r.Header.Get(HeaderActorName),
		r.Header.Get(HeaderActorRole),
	)
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		return services.Wrap(services.ErrValidation, "decode body", "request body must be JSON", err)
	}
	return nil
}

// StatusCode maps an error kind to its HTTP status.
func StatusCode(err error) int {
	switch services.KindOf(err) {
	case "validation":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "forbidden":
		return http.StatusForbidden
	case "unavailable":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "api request failed", "api_request_failed",
			logging.Error(err),
			logging.String("path", r.URL.Path),
		)
	}
	writeJSON(w, status, errorBody(err.Error(), services.KindOf(err)))
}

func errorBody(message, kind string) api.ErrorResponse {
	return api.ErrorResponse{Error: message, Kind: kind}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
