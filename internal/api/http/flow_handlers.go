package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appIntent "github.com/handlepay/handlepay/internal/application/intent"
	"github.com/handlepay/handlepay/internal/application/resolver"
	"github.com/handlepay/handlepay/internal/domain/identity"
	domainIntent "github.com/handlepay/handlepay/internal/domain/intent"
)

type openFlowRequest struct {
	Kind  string `json:"kind"`
	Slots int    `json:"slots,omitempty"`
}

type fieldRequest struct {
	Input string `json:"input"`
}

func (s *Server) openFlow(w http.ResponseWriter, r *http.Request) {
	var req openFlowRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	kind, err := domainIntent.ParseFlowKind(req.Kind)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	c, err := s.flows.Open(kind, appIntent.Params{Slots: req.Slots})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, c.Snapshot())
}

func (s *Server) listFlows(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.flows.List())
}

func (s *Server) getFlow(w http.ResponseWriter, r *http.Request) {
	c, ok := s.flowFromRequest(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) closeFlow(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "flowId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid flowId")
		return
	}
	if err := s.flows.Close(id); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setTarget(w http.ResponseWriter, r *http.Request) {
	s.setField(w, r, (*appIntent.Controller).SetTarget)
}

func (s *Server) setAmount(w http.ResponseWriter, r *http.Request) {
	s.setField(w, r, (*appIntent.Controller).SetAmount)
}

func (s *Server) setField(w http.ResponseWriter, r *http.Request, set func(*appIntent.Controller, string) error) {
	c, ok := s.flowFromRequest(w, r)
	if !ok {
		return
	}
	var req fieldRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if err := set(c, req.Input); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) approve(w http.ResponseWriter, r *http.Request) {
	s.runExecution(w, r, domainIntent.StatusReadyToApprove, (*appIntent.Controller).Approve)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	s.runExecution(w, r, domainIntent.StatusReadyToSubmit, (*appIntent.Controller).Submit)
}

// runExecution starts a ledger write. By default it runs in the background
// and progress is reported on the event stream; ?wait=true blocks until the
// execution settles.
func (s *Server) runExecution(w http.ResponseWriter, r *http.Request, ready domainIntent.Status, run func(*appIntent.Controller, context.Context) error) {
	c, ok := s.flowFromRequest(w, r)
	if !ok {
		return
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		if err := run(c, r.Context()); err != nil {
			respondDomainError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, c.Snapshot())
		return
	}

	snap := c.Snapshot()
	exec := snap.Execution
	retryable := exec != nil && exec.Status == domainIntent.StatusFailed && exec.Recoverable
	resumable := exec != nil && exec.Stalled()
	if snap.Status() != ready && !(ready == domainIntent.StatusReadyToSubmit && (retryable || resumable)) {
		if exec != nil && exec.Busy() {
			respondDomainError(w, domainIntent.ErrExecutionInProgress)
			return
		}
		respondDomainError(w, domainIntent.ErrNotReady)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := run(c, s.bg); err != nil {
			s.logger.Info().Err(err).Str("flowId", c.ID().String()).Msg("execution did not complete")
		}
	}()
	respondJSON(w, http.StatusAccepted, snap)
}

func (s *Server) retry(w http.ResponseWriter, r *http.Request) {
	c, ok := s.flowFromRequest(w, r)
	if !ok {
		return
	}
	// stalled executions resume waiting on the accepted action
	if exec := c.Snapshot().Execution; exec != nil && exec.Stalled() {
		s.submit(w, r)
		return
	}
	if err := c.Retry(); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	c, ok := s.flowFromRequest(w, r)
	if !ok {
		return
	}
	if err := c.Reset(); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) resolveIdentifier(w http.ResponseWriter, r *http.Request) {
	input := chi.URLParam(r, "identifier")
	forbidSelf, _ := strconv.ParseBool(r.URL.Query().Get("forbid_self"))
	res, err := s.resolverSvc.Resolve(r.Context(), input, resolver.Options{
		Caller:     s.session.Account,
		ForbidSelf: forbidSelf,
	})
	if err != nil {
		respondDomainError(w, domainIntent.Network("resolve", err))
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) checkRegistration(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	if _, err := identity.ParseHandle(handle); err != nil {
		respondDomainError(w, domainIntent.Malformed(identity.Reason(err), err.Error()))
		return
	}
	avail, err := s.resolverSvc.CheckRegistration(r.Context(), handle, s.session.Account)
	if err != nil {
		respondDomainError(w, domainIntent.Network("registration_check", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"handle":    avail.Handle,
		"ok":        avail.Ok(),
		"conflicts": avail.Conflicts(),
	})
}

func (s *Server) flowFromRequest(w http.ResponseWriter, r *http.Request) (*appIntent.Controller, bool) {
	id, err := parseUUIDParam(r, "flowId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid flowId")
		return nil, false
	}
	c, err := s.flows.Get(id)
	if err != nil {
		respondDomainError(w, err)
		return nil, false
	}
	return c, true
}
