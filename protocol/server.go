package protocol

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ZaguanLabs/autotranslate"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server exposes a dispatcher over HTTP.
//
//	POST /commands        send a command; translatePage is accepted asynchronously
//	GET  /state           the postState message
//	GET  /notifications   buffered notifications, ?since=N skips the first N
//	GET  /page            the page as currently displayed
type Server struct {
	dispatcher    *Dispatcher
	notifications *Buffer
	logger        *zap.Logger
}

// NewServer creates a server. notifications must be the buffer the
// dispatcher sends to, or nil to disable GET /notifications.
func NewServer(d *Dispatcher, notifications *Buffer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		dispatcher:    d,
		notifications: notifications,
		logger:        logger,
	}
}

// Router returns the HTTP handler.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	s.RegisterHTTP(r)
	return r
}

// RegisterHTTP registers the endpoints on an existing router.
func (s *Server) RegisterHTTP(r chi.Router) {
	r.Post("/commands", s.handleCommand)
	r.Get("/state", s.handleState)
	r.Get("/notifications", s.handleNotifications)
	r.Get("/page", s.handlePage)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("requestId", middleware.GetReqID(r.Context())),
			zap.Duration("elapsed", time.Since(start)))
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

type acceptedResponse struct {
	Session  string `json:"session"`
	Accepted bool   `json:"accepted"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid message: " + err.Error()})
		return
	}

	if msg.Command == CmdTranslatePage {
		err := s.dispatcher.HandleAsync(r.Context(), msg)
		switch {
		case errors.Is(err, autotranslate.ErrTranslationInProgress):
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		case err != nil:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusAccepted, acceptedResponse{Session: s.dispatcher.Session(), Accepted: true})
		}
		return
	}

	reply, err := s.dispatcher.Handle(r.Context(), msg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrUnknownCommand) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	reply, err := s.dispatcher.State()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if s.notifications == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "notifications are not buffered"})
		return
	}

	since := 0
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "since must be a non-negative integer"})
			return
		}
		since = n
	}
	writeJSON(w, http.StatusOK, s.notifications.Messages(since))
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	html, err := s.dispatcher.Page().HTML()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}
