package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"quiz-launcher/internal/quiz"
	"quiz-launcher/internal/session"
)

const defaultListLimit = 10

func (a *API) HandleOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	writeJSON(w, http.StatusOK, optionsResponse{
		Categories:     quiz.Categories(),
		QuestionTypes:  quiz.QuestionTypes(),
		QuestionCounts: quiz.QuestionCounts(),
	})
}

func (a *API) HandleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	if !a.requireController(w) {
		return
	}

	writeJSON(w, http.StatusOK, a.controller.Snapshot())
}

// HandleConfig applies a partial configuration change. The response is the
// snapshot right after the change; a fetch it started is still in flight.
func (a *API) HandleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		writeMethodNotAllowed(w, http.MethodPatch)
		return
	}
	if !a.requireController(w) {
		return
	}

	update, ok := decodeConfigUpdate(w, r, false)
	if !ok {
		return
	}

	if err := a.controller.UpdateConfig(update); err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, a.controller.Snapshot())
}

// HandleReset starts preparing the next quiz after a handoff. An optional
// config body is applied on top of the default selection.
func (a *API) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	if !a.requireController(w) {
		return
	}

	update, ok := decodeConfigUpdate(w, r, true)
	if !ok {
		return
	}

	if err := a.controller.Reset(update); err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, a.controller.Snapshot())
}

func (a *API) HandleRating(w http.ResponseWriter, r *http.Request) {
	a.handleAction(w, r, func() error {
		err := a.controller.ResolveRating(r.Context())
		if err != nil {
			a.logger.Warn("rating request failed", zap.Error(err))
		}
		return err
	})
}

func (a *API) HandleRetry(w http.ResponseWriter, r *http.Request) {
	a.handleAction(w, r, func() error {
		return a.controller.Retry()
	})
}

func (a *API) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	a.handleAction(w, r, func() error {
		a.controller.DismissError()
		return nil
	})
}

func (a *API) HandleReconnect(w http.ResponseWriter, r *http.Request) {
	a.handleAction(w, r, func() error {
		a.controller.Reconnect()
		return nil
	})
}

func (a *API) HandleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	if a.sessions == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "session history unavailable"})
		return
	}

	limit, err := parseIntParam(r, "limit", defaultListLimit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	items, err := a.sessions.ListSessions(r.Context(), limit)
	if err != nil {
		a.logger.Error("list sessions failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list sessions"})
		return
	}

	writeJSON(w, http.StatusOK, sessionsResponse{Sessions: items})
}

func (a *API) HandleStoredSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	if a.sessions == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "session history unavailable"})
		return
	}

	sessionID := strings.TrimSpace(r.PathValue("session_id"))
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "session_id is required"})
		return
	}

	record, err := a.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleAction runs a bodiless POST against the controller and answers with
// the resulting snapshot.
func (a *API) handleAction(w http.ResponseWriter, r *http.Request, action func() error) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	if !a.requireController(w) {
		return
	}

	if err := action(); err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, a.controller.Snapshot())
}

func decodeConfigUpdate(w http.ResponseWriter, r *http.Request, allowEmpty bool) (session.ConfigUpdate, bool) {
	defer r.Body.Close()

	var update session.ConfigUpdate
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&update); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return session.ConfigUpdate{}, true
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return session.ConfigUpdate{}, false
	}
	return update, true
}

func (a *API) requireController(w http.ResponseWriter) bool {
	if a.controller == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "quiz session unavailable"})
		return false
	}
	return true
}
