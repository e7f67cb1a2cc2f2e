package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/outreach"
	"github.com/sells-group/prospect-cli/internal/prospect"
	"github.com/sells-group/prospect-cli/internal/workspace"
)

const maxBodyBytes = 4 << 20

var errBadRequest = eris.New("api: invalid request body")

type errorBody struct {
	Error              string `json:"error"`
	NeedsAuthorization bool   `json:"needsAuthorization,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: write response", zap.Error(err))
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return eris.Wrap(errBadRequest, err.Error())
	}
	return nil
}

// statusFor maps an error to an HTTP status. Errors it does not recognise
// get fallback: 502 for handlers that ran a backend stage, 500 otherwise.
func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, workspace.ErrLeadNotFound), errors.Is(err, workspace.ErrProjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, workspace.ErrLeadBusy), errors.Is(err, workspace.ErrProjectChanged):
		return http.StatusConflict
	case errors.Is(err, outreach.ErrNeedsAuthorization):
		return http.StatusUnauthorized
	case errors.Is(err, prospect.ErrNoDraft),
		errors.Is(err, prospect.ErrEmptyInstruction),
		errors.Is(err, prospect.ErrEmptyEmail),
		errors.Is(err, prospect.ErrNoWebsite),
		errors.Is(err, prospect.ErrSearchTerms),
		errors.Is(err, outreach.ErrNoDraft),
		errors.Is(err, outreach.ErrNoRecipient),
		errors.Is(err, errInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, prospect.ErrNoTransport):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	var sendErr *outreach.SendError
	if errors.As(err, &sendErr) {
		return http.StatusBadGateway
	}
	return fallback
}

func writeError(w http.ResponseWriter, err error, fallback int) {
	status := statusFor(err, fallback)
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed", zap.Int("status", status), zap.Error(err))
	}

	body := errorBody{Error: err.Error()}
	var sendErr *outreach.SendError
	switch {
	case errors.Is(err, outreach.ErrNeedsAuthorization):
		body.NeedsAuthorization = true
	case errors.As(err, &sendErr):
		body.Error = sendErr.Message
	}
	writeJSON(w, status, body)
}

// errInvalid marks request fields that fail validation.
var errInvalid = eris.New("api: invalid request")

func invalid(msg string) error {
	return eris.Wrap(errInvalid, msg)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
