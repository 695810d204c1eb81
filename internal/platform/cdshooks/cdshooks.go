// Package cdshooks serves the HL7 CDS Hooks 2.0 REST surface: discovery,
// invocation and card feedback.
package cdshooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Hook names used by the engine's services.
const (
	HookPatientView = "patient-view"
	HookOrderSelect = "order-select"
	HookOrderSign   = "order-sign"
)

// Card indicators, least to most urgent.
const (
	IndicatorInfo     = "info"
	IndicatorWarning  = "warning"
	IndicatorCritical = "critical"
)

// Service describes a single CDS service returned in discovery.
type Service struct {
	Hook              string            `json:"hook"`
	Title             string            `json:"title,omitempty"`
	Description       string            `json:"description"`
	ID                string            `json:"id"`
	Prefetch          map[string]string `json:"prefetch,omitempty"`
	UsageRequirements string            `json:"usageRequirements,omitempty"`
}

// Request is the payload POSTed to invoke a hook. Context and prefetch
// entries stay raw until a service decodes the keys it needs.
type Request struct {
	Hook         string                     `json:"hook"`
	HookInstance string                     `json:"hookInstance"`
	FHIRServer   string                     `json:"fhirServer,omitempty"`
	Context      map[string]json.RawMessage `json:"context"`
	Prefetch     map[string]json.RawMessage `json:"prefetch,omitempty"`
}

// ErrMissingPrefetch is returned by DecodePrefetch when the key is absent.
var ErrMissingPrefetch = errors.New("missing prefetch entry")

// DecodePrefetch unmarshals the prefetch entry key into v.
func (r Request) DecodePrefetch(key string, v interface{}) error {
	raw, ok := r.Prefetch[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("%w: %s", ErrMissingPrefetch, key)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode prefetch %s: %w", key, err)
	}
	return nil
}

// DecodeContext unmarshals the context field key into v. A missing key
// leaves v untouched and reports false.
func (r Request) DecodeContext(key string, v interface{}) (bool, error) {
	raw, ok := r.Context[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode context %s: %w", key, err)
	}
	return true, nil
}

// Card is a single card in the hook response.
type Card struct {
	UUID              string       `json:"uuid,omitempty"`
	Summary           string       `json:"summary"`
	Detail            string       `json:"detail,omitempty"`
	Indicator         string       `json:"indicator"`
	Source            Source       `json:"source"`
	Suggestions       []Suggestion `json:"suggestions,omitempty"`
	Links             []Link       `json:"links,omitempty"`
	OverrideReasons   []Coding     `json:"overrideReasons,omitempty"`
	SelectionBehavior string       `json:"selectionBehavior,omitempty"`
}

type Source struct {
	Label string  `json:"label"`
	URL   string  `json:"url,omitempty"`
	Topic *Coding `json:"topic,omitempty"`
}

type Suggestion struct {
	Label         string   `json:"label"`
	UUID          string   `json:"uuid,omitempty"`
	IsRecommended bool     `json:"isRecommended,omitempty"`
	Actions       []Action `json:"actions,omitempty"`
}

type Action struct {
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Resource    interface{} `json:"resource,omitempty"`
}

type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

// Coding is a code/system/display triple.
type Coding struct {
	Code    string `json:"code"`
	System  string `json:"system,omitempty"`
	Display string `json:"display,omitempty"`
}

// Response is returned from hook invocation.
type Response struct {
	Cards         []Card   `json:"cards"`
	SystemActions []Action `json:"systemActions,omitempty"`
}

// Feedback records what the user did with one card.
type Feedback struct {
	Card             string   `json:"card"`
	Outcome          string   `json:"outcome"`
	OverrideReasons  []Coding `json:"overrideReasons,omitempty"`
	OutcomeTimestamp string   `json:"outcomeTimestamp,omitempty"`
}

// FeedbackRequest is the 2.0 feedback envelope.
type FeedbackRequest struct {
	Feedback []Feedback `json:"feedback"`
}

// CardUUID derives a stable card id from the service and a card key (a rule
// id or the summary), so identical input produces identical cards.
func CardUUID(serviceID, key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("cds-services/"+serviceID+"#"+key)).String()
}

// ServiceHandler processes a hook request and returns cards.
type ServiceHandler func(ctx context.Context, req Request) (*Response, error)

// FeedbackHandler processes feedback for a service.
type FeedbackHandler func(ctx context.Context, serviceID string, fb Feedback) error

// ErrBadRequest marks handler errors caused by the request content.
var ErrBadRequest = errors.New("bad hook request")

// Handler implements the CDS Hooks REST API. Services are registered at
// startup; lookups are safe for concurrent requests.
type Handler struct {
	mu               sync.RWMutex
	services         map[string]Service
	handlers         map[string]ServiceHandler
	feedbackHandlers map[string]FeedbackHandler
	order            []string
}

func NewHandler() *Handler {
	return &Handler{
		services:         make(map[string]Service),
		handlers:         make(map[string]ServiceHandler),
		feedbackHandlers: make(map[string]FeedbackHandler),
	}
}

// RegisterService registers a service and its handler. Re-registering an id
// replaces it in place.
func (h *Handler) RegisterService(svc Service, handler ServiceHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.services[svc.ID]; !exists {
		h.order = append(h.order, svc.ID)
	}
	h.services[svc.ID] = svc
	h.handlers[svc.ID] = handler
}

func (h *Handler) RegisterFeedbackHandler(serviceID string, handler FeedbackHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.feedbackHandlers[serviceID] = handler
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/cds-services", h.Discovery)
	e.POST("/cds-services/:id", h.HandleHook)
	e.POST("/cds-services/:id/feedback", h.HandleFeedback)
}

// Discovery handles GET /cds-services.
func (h *Handler) Discovery(c echo.Context) error {
	h.mu.RLock()
	services := make([]Service, 0, len(h.order))
	for _, id := range h.order {
		services = append(services, h.services[id])
	}
	h.mu.RUnlock()
	return c.JSON(http.StatusOK, map[string][]Service{"services": services})
}

func (h *Handler) lookup(id string) (Service, ServiceHandler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	svc, ok := h.services[id]
	return svc, h.handlers[id], ok
}

// HandleHook handles POST /cds-services/:id.
func (h *Handler) HandleHook(c echo.Context) error {
	serviceID := c.Param("id")
	svc, handler, ok := h.lookup(serviceID)
	if !ok {
		return c.JSON(http.StatusNotFound, NotFoundOutcome("CDS Service", serviceID))
	}

	var req Request
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorOutcome(fmt.Sprintf("invalid request body: %v", err)))
	}
	if req.Hook != svc.Hook {
		return c.JSON(http.StatusBadRequest, ErrorOutcome(
			fmt.Sprintf("hook mismatch: request hook %q does not match service hook %q", req.Hook, svc.Hook),
		))
	}
	if req.HookInstance == "" {
		return c.JSON(http.StatusBadRequest, ErrorOutcome("hookInstance is required"))
	}
	if handler == nil {
		return c.JSON(http.StatusInternalServerError, InternalErrorOutcome("no handler registered for service"))
	}

	resp, err := handler(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrMissingPrefetch) {
			return c.JSON(http.StatusBadRequest, InvalidOutcome(err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, InternalErrorOutcome(err.Error()))
	}
	if resp == nil {
		resp = &Response{}
	}
	if resp.Cards == nil {
		resp.Cards = []Card{}
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleFeedback handles POST /cds-services/:id/feedback. Without a
// registered feedback handler the call is accepted as a no-op.
func (h *Handler) HandleFeedback(c echo.Context) error {
	serviceID := c.Param("id")
	if _, _, ok := h.lookup(serviceID); !ok {
		return c.JSON(http.StatusNotFound, NotFoundOutcome("CDS Service", serviceID))
	}

	var fb FeedbackRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&fb); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorOutcome(fmt.Sprintf("invalid feedback body: %v", err)))
	}

	h.mu.RLock()
	handler, ok := h.feedbackHandlers[serviceID]
	h.mu.RUnlock()
	if !ok {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
	for _, item := range fb.Feedback {
		if err := handler(c.Request().Context(), serviceID, item); err != nil {
			return c.JSON(http.StatusInternalServerError, InternalErrorOutcome(err.Error()))
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
