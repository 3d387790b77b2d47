package core

import (
	"errors"
	"io"
	"net/http"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-sinks/pkg/admin"
	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf"
	"github.com/joeydtaylor/steeze-sinks/pkg/store"
	httpx "github.com/joeydtaylor/steeze-sinks/pkg/transport/httpx"
	"go.uber.org/zap"
)

const maxBody = 1 << 20

type handlers struct {
	svc *admin.Service
	log *zap.Logger
}

func (h handlers) types(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Types())
}

func (h handlers) list(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.List())
}

func (h handlers) get(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Get(httpx.Param(r, "name"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// validate answers 200 for any well-formed draft, valid or not.
func (h handlers) validate(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	rep, err := h.svc.Validate(body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h handlers) create(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.decode(w, r)
	if !ok {
		return
	}
	e, _, err := h.svc.Save(r.Context(), cfg, false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h handlers) replace(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.decode(w, r)
	if !ok {
		return
	}
	if name := httpx.Param(r, "name"); cfg.Identity().Name != name {
		writeError(w, http.StatusBadRequest, "body name does not match path", nil)
		return
	}
	e, created, err := h.svc.Save(r.Context(), cfg, true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, e)
}

func (h handlers) remove(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.Delete(r.Context(), httpx.Param(r, "name")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h handlers) decode(w http.ResponseWriter, r *http.Request) (sinkconf.Configuration, bool) {
	body, ok := readBody(w, r)
	if !ok {
		return nil, false
	}
	cfg, err := h.svc.Decode(body)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return cfg, true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", nil)
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "read request body", nil)
		return nil, false
	}
	return body, true
}

// fail maps domain errors onto HTTP statuses.
func (h handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *sinkconf.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), ve.Violations)
	case errors.Is(err, sinkconf.ErrInvalidArgument), errors.Is(err, sinkconf.ErrUnknownSinkType):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, store.ErrDuplicateName):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	default:
		h.log.Error("request failed",
			zap.String("requestId", chimd.GetReqID(r.Context())),
			zap.String("uri", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}
