package v1

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/reelforge/reelforge/internal/handlers/validator"
	"github.com/reelforge/reelforge/internal/provider"
	"github.com/reelforge/reelforge/internal/provider/compositor"
	"github.com/reelforge/reelforge/internal/service"
	"github.com/reelforge/reelforge/pkg/requestid"
	"go.uber.org/zap"
)

type ErrorReply struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`

	status int
}

func (e ErrorReply) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.status)
	return nil
}

type vendorDetails struct {
	Vendor     string `json:"vendor"`
	Operation  string `json:"operation"`
	StatusCode int    `json:"statusCode,omitempty"`
	Body       string `json:"body,omitempty"`
}

// toErrorReply maps an error returned by the services to its HTTP status.
func toErrorReply(err error) ErrorReply {
	var (
		errValidation   *service.ErrValidation
		errInvalidForm  *validator.ErrInvalidForm
		errAuthz        *service.ErrAuthorization
		errNotFound     *service.ErrResourceNotFound
		errCredits      *service.ErrInsufficientCredits
		errConcurrent   *service.ErrConcurrentUpdate
		errVendor       *provider.RequestError
		errVendorShape  *provider.ResponseShapeError
		errTemplateBind *compositor.TemplateBindingError
	)

	switch {
	case errors.As(err, &errInvalidForm):
		return ErrorReply{status: http.StatusBadRequest, Error: err.Error(), Details: map[string]any{"fields": errInvalidForm.Fields}}
	case errors.As(err, &errValidation):
		return ErrorReply{status: http.StatusBadRequest, Error: err.Error()}
	case errors.As(err, &errAuthz):
		return ErrorReply{status: http.StatusForbidden, Error: err.Error()}
	case errors.As(err, &errNotFound):
		return ErrorReply{status: http.StatusNotFound, Error: err.Error()}
	case errors.As(err, &errCredits):
		return ErrorReply{
			status:  http.StatusPaymentRequired,
			Error:   err.Error(),
			Details: map[string]int{"required": errCredits.Required, "balance": errCredits.Balance},
		}
	case errors.As(err, &errConcurrent):
		return ErrorReply{status: http.StatusConflict, Error: err.Error()}
	case errors.As(err, &errTemplateBind):
		return ErrorReply{
			status:  http.StatusUnprocessableEntity,
			Error:   err.Error(),
			Details: map[string]string{"template": errTemplateBind.Template, "placeholder": errTemplateBind.Token},
		}
	case errors.As(err, &errVendor):
		return ErrorReply{
			status: http.StatusInternalServerError,
			Error:  "vendor request failed",
			Details: vendorDetails{
				Vendor:     errVendor.Vendor,
				Operation:  errVendor.Operation,
				StatusCode: errVendor.StatusCode,
				Body:       errVendor.Body,
			},
		}
	case errors.As(err, &errVendorShape):
		return ErrorReply{status: http.StatusBadGateway, Error: err.Error()}
	default:
		return ErrorReply{status: http.StatusInternalServerError, Error: "internal server error"}
	}
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	reply := toErrorReply(err)

	logger := zap.S().Named("handlers").With("request_id", requestid.FromRequest(r), "path", r.URL.Path, "status", reply.status)
	if reply.status >= http.StatusInternalServerError {
		logger.Errorw("request failed", "error", err)
	} else {
		logger.Infow("request rejected", "error", err)
	}

	_ = render.Render(w, r, reply)
}

func badRequest(w http.ResponseWriter, r *http.Request, format string, args ...any) {
	renderError(w, r, service.NewErrValidation(format, args...))
}
