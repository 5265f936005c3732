package api

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"

	"github.com/mmynk/sodarota/internal/i18n"
	"github.com/mmynk/sodarota/internal/ledger"
	"github.com/mmynk/sodarota/internal/models"
	"github.com/mmynk/sodarota/internal/rotation"
	"github.com/mmynk/sodarota/internal/service"
)

// MaxListCount caps the n parameter of list endpoints.
const MaxListCount = 100

type ledgerService interface {
	PublicView(ctx context.Context) (service.PublicData, error)
	Document(ctx context.Context) (*models.Ledger, error)
	ToggleToday(ctx context.Context, dateKey string) (map[string]string, error)
	AddPerson(ctx context.Context, name string) ([]string, error)
	RemovePerson(ctx context.Context, name string) ([]string, error)
	SetPayment(ctx context.Context, dateKey, name string) (map[string]string, error)
	Reset(ctx context.Context) error
	Today(ctx context.Context) (service.TodayView, error)
	Upcoming(ctx context.Context, n int) ([]models.Assignment, error)
	History(ctx context.Context, n int) ([]models.Payment, error)
	Ranking(ctx context.Context) ([]ledger.RankEntry, error)
	Stats(ctx context.Context) (service.Stats, error)
	Balances(ctx context.Context) (service.Balances, error)
	Calendar(ctx context.Context, year, month int) ([]rotation.CalendarDay, error)
}

// LedgerHandler serves the rotation and payment endpoints.
type LedgerHandler struct {
	service      ledgerService
	translator   *i18n.Translator
	defaultCount int
	pick         func(n int) int
	responder    responder
	logger       *slog.Logger
}

// LedgerHandlerOption customizes a LedgerHandler.
type LedgerHandlerOption func(*LedgerHandler)

// WithDefaultCount sets the n used by list endpoints when the query omits it.
func WithDefaultCount(n int) LedgerHandlerOption {
	return func(h *LedgerHandler) {
		if n > 0 {
			h.defaultCount = n
		}
	}
}

// WithFunPicker replaces the random choice of today's fun message.
func WithFunPicker(pick func(n int) int) LedgerHandlerOption {
	return func(h *LedgerHandler) {
		if pick != nil {
			h.pick = pick
		}
	}
}

// NewLedgerHandler creates the ledger endpoints.
func NewLedgerHandler(svc ledgerService, translator *i18n.Translator, logger *slog.Logger, opts ...LedgerHandlerOption) *LedgerHandler {
	base := defaultLogger(logger)
	h := &LedgerHandler{
		service:      svc,
		translator:   translator,
		defaultCount: 5,
		pick:         rand.IntN,
		responder:    newResponder(base),
		logger:       base,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *LedgerHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "LedgerHandler", operation, attrs...)
}

type paidDatesResponse struct {
	Success   bool              `json:"success"`
	PaidDates map[string]string `json:"paidDates"`
}

type peopleResponse struct {
	Success bool     `json:"success"`
	People  []string `json:"people"`
}

type todayResponse struct {
	service.TodayView
	Message    string `json:"message"`
	FunMessage string `json:"funMessage,omitempty"`
	Lang       string `json:"lang"`
}

type personRequest struct {
	Name string `json:"name"`
}

type paymentRequest struct {
	Date string  `json:"date"`
	Name *string `json:"name"`
}

// Data handles GET /api/data.
func (h *LedgerHandler) Data(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.PublicView(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, data)
}

// ToggleToday handles PATCH /api/paid/toggle-today.
func (h *LedgerHandler) ToggleToday(w http.ResponseWriter, r *http.Request) {
	paid, err := h.service.ToggleToday(r.Context(), strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, paidDatesResponse{Success: true, PaidDates: paid})
}

// Today handles GET /api/today. Messages follow the Accept-Language header.
func (h *LedgerHandler) Today(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Today(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := todayResponse{TodayView: view}
	if h.translator != nil {
		loc := h.translator.Localizer(r.Header.Get("Accept-Language"))
		resp.Lang = loc.Tag.String()
		resp.Message = loc.TodayAlert(view.PurchaseDay, view.Responsible, view.Payer)
		if view.PurchaseDay && !view.Paid && view.Responsible != rotation.Nobody {
			resp.FunMessage = loc.FunMessage(h.pick(i18n.FunMessageCount), view.Responsible)
		}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

// Upcoming handles GET /api/upcoming?n=.
func (h *LedgerHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	n, err := h.count(r)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	upcoming, err := h.service.Upcoming(r.Context(), n)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, upcoming)
}

// History handles GET /api/history?n=.
func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	n, err := h.count(r)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	history, err := h.service.History(r.Context(), n)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, history)
}

// Ranking handles GET /api/ranking.
func (h *LedgerHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.service.Ranking(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, ranking)
}

// AdminData handles GET /api/admin/data.
func (h *LedgerHandler) AdminData(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Document(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, doc)
}

// Stats handles GET /api/admin/stats.
func (h *LedgerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, stats)
}

// Balances handles GET /api/admin/balances.
func (h *LedgerHandler) Balances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.service.Balances(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, balances)
}

// Calendar handles GET /api/admin/calendar?year=&month=. Omitted values
// select the current year or month.
func (h *LedgerHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year", 0)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	month, err := intParam(r, "month", 0)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	days, err := h.service.Calendar(r.Context(), year, month)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, days)
}

// Reset handles PATCH and DELETE /api/admin/reset.
func (h *LedgerHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context()); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true, Message: "all payments cleared"})
}

// AddPerson handles POST /api/admin/people.
func (h *LedgerHandler) AddPerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "AddPerson", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode person request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	people, err := h.service.AddPerson(r.Context(), req.Name)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, peopleResponse{Success: true, People: people})
}

// RemovePerson handles DELETE /api/admin/people.
func (h *LedgerHandler) RemovePerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "RemovePerson", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode person request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	people, err := h.service.RemovePerson(r.Context(), req.Name)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, peopleResponse{Success: true, People: people})
}

// SetPayment handles PATCH /api/admin/paid. A null or empty name clears the date.
func (h *LedgerHandler) SetPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "SetPayment", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode payment request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	name := ""
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
	}
	paid, err := h.service.SetPayment(r.Context(), strings.TrimSpace(req.Date), name)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, paidDatesResponse{Success: true, PaidDates: paid})
}

// count reads the n query parameter, defaulting to defaultCount.
func (h *LedgerHandler) count(r *http.Request) (int, error) {
	n, err := intParam(r, "n", h.defaultCount)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > MaxListCount {
		return 0, &ledger.ValidationError{Field: "n", Message: "n must be between 1 and " + strconv.Itoa(MaxListCount)}
	}
	return n, nil
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ledger.ValidationError{Field: name, Message: name + " must be an integer"}
	}
	return value, nil
}
