// Package http is the console gateway. It exposes the session lifecycle,
// the cached resource reads and mutations, and the navigation guard over a
// local HTTP surface.
package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/samuelorobosa/jci-conf-client/internal/config"
	"github.com/samuelorobosa/jci-conf-client/internal/fault"
	"github.com/samuelorobosa/jci-conf-client/internal/guard"
	"github.com/samuelorobosa/jci-conf-client/internal/model"
	"github.com/samuelorobosa/jci-conf-client/internal/resources"
	"github.com/samuelorobosa/jci-conf-client/internal/session"
	"github.com/samuelorobosa/jci-conf-client/internal/upstream"
)

type Server struct {
	cfg      config.Config
	session  *session.Store
	registry *resources.Registry
	routes   guard.Routes
	log      *logrus.Logger
}

// NewServer wires the gateway. It also subscribes to the session so that
// any transition out of the authenticated state drops the whole cache:
// nothing fetched under the old session may be served after it ends.
func NewServer(cfg config.Config, sessionStore *session.Store, registry *resources.Registry, log *logrus.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		session:  sessionStore,
		registry: registry,
		routes:   guard.DefaultRoutes(),
		log:      log,
	}
	if cfg.LoginPath != "" {
		s.routes.LoginPath = cfg.LoginPath
	}
	if cfg.LandingPath != "" {
		s.routes.LandingPath = cfg.LandingPath
	}

	var transitionMu sync.Mutex
	wasAuthenticated := sessionStore.Snapshot().IsAuthenticated
	sessionStore.Subscribe(func(snapshot session.Snapshot) {
		transitionMu.Lock()
		defer transitionMu.Unlock()
		if wasAuthenticated && !snapshot.IsAuthenticated {
			registry.Reset()
			log.Info("session ended, cache dropped")
		}
		wasAuthenticated = snapshot.IsAuthenticated
	})
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/nav", s.handleNav)

	r.Route("/session", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
		r.Post("/logout", s.handleLogout)
		r.Post("/refresh", s.handleRefresh)
		r.Route("/admins", func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/", s.handleListAdmins)
			r.Post("/", s.handleAddAdmin)
			r.Delete("/{adminID}", s.handleRemoveAdmin)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Route("/delegates", func(r chi.Router) {
			r.Get("/", s.handleListDelegates)
			r.Post("/", s.handleCreateDelegate)
			r.Get("/qr/{delegateID}", s.handleDelegateFromQR)
			r.Get("/{delegateID}", s.handleGetDelegate)
			r.Put("/{delegateID}", s.handleUpdateDelegate)
			r.Delete("/{delegateID}", s.handleDeleteDelegate)
			r.Get("/{delegateID}/trainings", s.handleDelegateTrainings)
			r.Post("/{delegateID}/trainings", s.handleAssignTrainings)
			r.Post("/{delegateID}/banquet-seating", s.handleAssignSeating)
		})

		r.Route("/trainings", func(r chi.Router) {
			r.Get("/", s.handleListTrainings)
			r.Post("/", s.handleCreateTraining)
			r.Get("/{trainingID}", s.handleGetTraining)
			r.Put("/{trainingID}", s.handleUpdateTraining)
			r.Delete("/{trainingID}", s.handleDeleteTraining)
		})

		r.Route("/banquet", func(r chi.Router) {
			r.Get("/tables", s.handleBanquetTables)
			r.Get("/tables/{tableNumber}/seats", s.handleAvailableSeats)
		})

		r.Route("/qr", func(r chi.Router) {
			r.Get("/verify/{delegateID}", s.handleVerifyDelegate)
			r.Post("/attendance", s.handleRecordAttendance)
			r.Get("/attendance/{delegateID}", s.handleAttendance)
			r.Get("/events/{eventID}", s.handleEvent)
		})
	})

	return r
}

// requireSession rejects resource operations once the session is gone. The
// upstream would reject them anyway; failing locally keeps the taxonomy
// consistent and spares a round trip.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.session.Snapshot().IsAuthenticated {
			writeError(w, http.StatusUnauthorized, "not_authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type sessionResponse struct {
	User            *model.User `json:"user"`
	IsAuthenticated bool        `json:"isAuthenticated"`
	IsLoading       bool        `json:"isLoading"`
}

func sessionPayload(snapshot session.Snapshot) sessionResponse {
	return sessionResponse{
		User:            snapshot.User,
		IsAuthenticated: snapshot.IsAuthenticated,
		IsLoading:       snapshot.IsLoading,
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, sessionPayload(s.session.Snapshot()))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.session.Login(r.Context(), req.Email, req.Password); err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(s.session.Snapshot()))
}

type registerRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.session.Register(r.Context(), req.Email, req.Password, req.Name, req.Role); err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionPayload(s.session.Snapshot()))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.session.Logout(r.Context())
	writeJSON(w, http.StatusOK, sessionPayload(s.session.Snapshot()))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Refresh(r.Context()); err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(s.session.Snapshot()))
}

func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	decision := guard.Evaluate(s.routes, path, s.session.Snapshot())
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := s.registry.ListAdmins(r.Context())
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, admins)
}

type addAdminRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

func (s *Server) handleAddAdmin(w http.ResponseWriter, r *http.Request) {
	var req addAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	created, err := s.session.AddAdmin(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		writeFault(w, err)
		return
	}
	s.registry.InvalidateAdmins()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleRemoveAdmin(w http.ResponseWriter, r *http.Request) {
	adminID := chi.URLParam(r, "adminID")
	if adminID == "" {
		writeError(w, http.StatusBadRequest, "missing_admin_id")
		return
	}
	if err := s.session.RemoveAdmin(r.Context(), adminID); err != nil {
		writeFault(w, err)
		return
	}
	s.registry.InvalidateAdmins()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListDelegates(w http.ResponseWriter, r *http.Request) {
	filters := upstream.DelegateFilters{
		Search:            strings.TrimSpace(r.URL.Query().Get("search")),
		LocalOrganization: strings.TrimSpace(r.URL.Query().Get("localOrganization")),
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			filters.Page = parsed
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			filters.Limit = parsed
		}
	}

	page, err := s.registry.ListDelegates(r.Context(), filters)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetDelegate(w http.ResponseWriter, r *http.Request) {
	delegate, err := s.registry.GetDelegate(r.Context(), chi.URLParam(r, "delegateID"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delegate)
}

func (s *Server) handleDelegateFromQR(w http.ResponseWriter, r *http.Request) {
	delegate, err := s.registry.DelegateFromQR(r.Context(), chi.URLParam(r, "delegateID"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delegate)
}

func (s *Server) handleCreateDelegate(w http.ResponseWriter, r *http.Request) {
	var draft model.DelegateDraft
	if err := decodeJSON(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	delegate, err := s.registry.CreateDelegate(r.Context(), draft)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, delegate)
}

func (s *Server) handleUpdateDelegate(w http.ResponseWriter, r *http.Request) {
	var draft model.DelegateDraft
	if err := decodeJSON(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	delegate, err := s.registry.UpdateDelegate(r.Context(), chi.URLParam(r, "delegateID"), draft)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delegate)
}

func (s *Server) handleDeleteDelegate(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.DeleteDelegate(r.Context(), chi.URLParam(r, "delegateID")); err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleDelegateTrainings(w http.ResponseWriter, r *http.Request) {
	trainings, err := s.registry.DelegateTrainings(r.Context(), chi.URLParam(r, "delegateID"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trainings)
}

type assignTrainingsRequest struct {
	TrainingIDs []string `json:"trainingIds"`
}

func (s *Server) handleAssignTrainings(w http.ResponseWriter, r *http.Request) {
	var req assignTrainingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	delegate, err := s.registry.AssignTrainings(r.Context(), chi.URLParam(r, "delegateID"), req.TrainingIDs)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delegate)
}

type assignSeatRequest struct {
	TableNumber int `json:"tableNumber"`
	SeatNumber  int `json:"seatNumber"`
}

func (s *Server) handleAssignSeating(w http.ResponseWriter, r *http.Request) {
	var req assignSeatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	delegate, err := s.registry.AssignBanquetSeating(r.Context(), chi.URLParam(r, "delegateID"), req.TableNumber, req.SeatNumber)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delegate)
}

func (s *Server) handleListTrainings(w http.ResponseWriter, r *http.Request) {
	trainings, err := s.registry.ListTrainings(r.Context())
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trainings)
}

func (s *Server) handleGetTraining(w http.ResponseWriter, r *http.Request) {
	training, err := s.registry.GetTraining(r.Context(), chi.URLParam(r, "trainingID"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, training)
}

func (s *Server) handleCreateTraining(w http.ResponseWriter, r *http.Request) {
	var draft model.TrainingDraft
	if err := decodeJSON(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	training, err := s.registry.CreateTraining(r.Context(), draft)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, training)
}

func (s *Server) handleUpdateTraining(w http.ResponseWriter, r *http.Request) {
	var draft model.TrainingDraft
	if err := decodeJSON(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	training, err := s.registry.UpdateTraining(r.Context(), chi.URLParam(r, "trainingID"), draft)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, training)
}

func (s *Server) handleDeleteTraining(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.DeleteTraining(r.Context(), chi.URLParam(r, "trainingID")); err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleBanquetTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.registry.BanquetTables(r.Context())
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

func (s *Server) handleAvailableSeats(w http.ResponseWriter, r *http.Request) {
	tableNumber, err := strconv.Atoi(chi.URLParam(r, "tableNumber"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_table")
		return
	}
	seats, err := s.registry.AvailableSeats(r.Context(), tableNumber)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seats)
}

func (s *Server) handleVerifyDelegate(w http.ResponseWriter, r *http.Request) {
	delegate, err := s.registry.VerifyDelegate(r.Context(), chi.URLParam(r, "delegateID"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delegate)
}

type recordAttendanceRequest struct {
	DelegateID string `json:"delegateId"`
	EventID    string `json:"eventId"`
}

func (s *Server) handleRecordAttendance(w http.ResponseWriter, r *http.Request) {
	var req recordAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.registry.RecordAttendance(r.Context(), req.DelegateID, req.EventID); err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request) {
	records, err := s.registry.Attendance(r.Context(), chi.URLParam(r, "delegateID"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.registry.Event(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func statusOf(err error) int {
	switch fault.KindOf(err) {
	case fault.KindValidation:
		return http.StatusBadRequest
	case fault.KindUnauthorized:
		return http.StatusUnauthorized
	case fault.KindNotFound:
		return http.StatusNotFound
	case fault.KindConflict:
		return http.StatusConflict
	case fault.KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeFault(w http.ResponseWriter, err error) {
	writeError(w, statusOf(err), fault.CodeOf(err))
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
