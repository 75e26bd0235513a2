// internal/form/surface/handler.go
package surface

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "lead-capture/internal/common/errors"
	"lead-capture/internal/common/logger"
	"lead-capture/internal/common/metrics"
	"lead-capture/internal/common/observability"
	"lead-capture/internal/form/store"
	formvalidator "lead-capture/internal/form/validator"
	"lead-capture/internal/models"
)

const (
	maxBodyBytes = 64 << 10

	// RedirectAfterSubmit is where the client goes once a lead is accepted.
	RedirectAfterSubmit = "/thank-you"
)

// Config wires the handler to its collaborators.
type Config struct {
	Registry        *Registry
	Validator       *formvalidator.Validator
	Observability   *observability.Observability
	Logger          logger.Logger
	SessionTTL      time.Duration
	SecureCookies   bool
	Production      bool
	SubmitRateLimit int
}

// Handler serves the form API for every visitor session.
type Handler struct {
	registry      *Registry
	rules         *formvalidator.Validator
	obs           *observability.Observability
	logger        logger.Logger
	validate      *validator.Validate
	fields        []FieldSpec
	sessionTTL    time.Duration
	secureCookies bool
	production    bool
	submitLimit   int
}

func NewHandler(cfg Config) *Handler {
	limit := cfg.SubmitRateLimit
	if limit <= 0 {
		limit = 10
	}
	return &Handler{
		registry:      cfg.Registry,
		rules:         cfg.Validator,
		obs:           cfg.Observability,
		logger:        logger.Component(cfg.Logger, "surface"),
		validate:      validator.New(),
		fields:        FieldsFor(cfg.Validator.Profile()),
		sessionTTL:    cfg.SessionTTL,
		secureCookies: cfg.SecureCookies,
		production:    cfg.Production,
		submitLimit:   limit,
	}
}

// Routes builds the router with the full middleware stack.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		secureHeaders(h.production, h.logger),
		requestLogger(h.logger, h.obs),
	)

	r.Route("/api", func(api chi.Router) {
		api.Get("/form/fields", h.handleFields)

		api.Group(func(sr chi.Router) {
			sr.Use(h.sessionMiddleware)

			sr.Get("/form", h.handleGetForm)
			sr.Put("/form/fields/{field}", h.handleSetField)
			sr.Post("/form/reset", h.handleReset)
			sr.With(submitLimiter(h.submitLimit)).Post("/form/submit", h.handleSubmit)

			// Address lookup only exists for profiles that collect an address.
			if h.rules.Profile().Has(models.FieldAddress) {
				sr.Post("/address/input", h.handleAddressInput)
				sr.Get("/address/suggestions", h.handleSuggestions)
				sr.Post("/address/select", h.handleAddressSelect)
				sr.Post("/address/blur", h.handleAddressBlur)
			}
		})
	})
	return r
}

type formView struct {
	FormData         models.FormRecord                `json:"formData"`
	Loading          bool                             `json:"loading"`
	Error            *string                          `json:"error"`
	Phase            store.Phase                      `json:"phase"`
	ValidationErrors formvalidator.ValidationErrorSet `json:"validationErrors"`
	Display          map[string]string                `json:"display"`
}

type errorBody struct {
	Error            string            `json:"error"`
	Code             string            `json:"code,omitempty"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
}

type setFieldRequest struct {
	Value string `json:"value" validate:"max=512"`
}

type addressInputRequest struct {
	Text string `json:"text" validate:"max=256"`
}

type suggestionRequest struct {
	Address string `json:"address" validate:"required,max=256"`
	City    string `json:"city" validate:"required,max=128"`
	State   string `json:"state" validate:"required,len=2"`
	Zip     string `json:"zip" validate:"omitempty,max=10"`
}

type selectRequest struct {
	Suggestion *suggestionRequest `json:"suggestion" validate:"required"`
}

func view(sess *Session) formView {
	snap := sess.Store.Snapshot()
	v := formView{
		FormData:         snap.FormData,
		Loading:          snap.Loading,
		Phase:            snap.Phase(),
		ValidationErrors: sess.Errors(),
		Display:          displayValues(snap.FormData),
	}
	if snap.Error != "" {
		msg := snap.Error
		v.Error = &msg
	}
	return v
}

func (h *Handler) handleFields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profile": h.rules.Profile(),
		"fields":  h.fields,
	})
}

func (h *Handler) handleGetForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, view(SessionFromContext(r.Context())))
}

func (h *Handler) handleSetField(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	field := chi.URLParam(r, "field")
	if !h.rules.Profile().Has(field) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "unknown field: " + field})
		return
	}

	var req setFieldRequest
	if !h.decode(w, r, &req) {
		return
	}

	value := normalizeInput(field, req.Value)
	sess.Store.SetField(field, value)
	msg, ok := h.rules.ValidateField(field, value)
	sess.ApplyFieldResult(field, msg, ok)

	writeJSON(w, http.StatusOK, view(sess))
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	sess.Store.Reset(r.Context())
	sess.Address.OnBlur()
	sess.ReplaceErrors(formvalidator.ValidationErrorSet{})
	writeJSON(w, http.StatusOK, view(sess))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	ctx, span := observability.Tracer().Start(r.Context(), "form.submit")
	defer span.End()

	errs := h.rules.ValidateAll(sess.Store.Snapshot().FormData)
	sess.ReplaceErrors(errs)
	if !errs.Valid() {
		verr := apperrors.NewValidationFailedError(errs.Fields())
		span.SetAttributes(attribute.StringSlice("form.invalid_fields", errs.Fields()))
		span.SetStatus(codes.Error, verr.Message)
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeSkipped, string(verr.Code)).Inc()
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:            verr.Message,
			Code:             string(verr.Code),
			ValidationErrors: errs,
		})
		return
	}

	if err := sess.Store.Submit(ctx); err != nil {
		if errors.Is(err, ctx.Err()) {
			return
		}
		stdErr := apperrors.Normalize(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, stdErr.Message)
		writeJSON(w, http.StatusBadGateway, errorBody{
			Error: stdErr.Message,
			Code:  string(stdErr.Code),
		})
		return
	}

	sess.ReplaceErrors(formvalidator.ValidationErrorSet{})
	writeJSON(w, http.StatusOK, map[string]string{"redirect": RedirectAfterSubmit})
}

func (h *Handler) handleAddressInput(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	var req addressInputRequest
	if !h.decode(w, r, &req) {
		return
	}

	sess.Store.SetField(models.FieldAddress, req.Text)
	msg, ok := h.rules.ValidateField(models.FieldAddress, req.Text)
	sess.ApplyFieldResult(models.FieldAddress, msg, ok)
	sess.Address.OnAddressInput(req.Text)

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"suggestions": sess.Address.Suggestions(),
	})
}

func (h *Handler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": sess.Address.Suggestions(),
	})
}

func (h *Handler) handleAddressSelect(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	var req selectRequest
	if !h.decode(w, r, &req) {
		return
	}

	sess.Address.OnSuggestionSelected(models.AddressSuggestion{
		Address: req.Suggestion.Address,
		City:    req.Suggestion.City,
		State:   req.Suggestion.State,
		Zip:     req.Suggestion.Zip,
	})
	writeJSON(w, http.StatusOK, view(sess))
}

func (h *Handler) handleAddressBlur(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	sess.Address.OnBlur()
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body into dst and checks its validate tags. It writes
// the 400 response itself and reports whether the handler should continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fieldErr := range verrs {
			fields[fieldErr.Field()] = fieldErr.Tag()
		}
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:            "invalid request",
			ValidationErrors: fields,
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}
