// Package http exposes the coordination core over REST and websocket. The
// REST surface carries the confirmation-code operations and order claiming;
// everything realtime rides the websocket at /ws.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"dispatch/internal/coordination"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/confirmation"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/metrics"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Identity headers. Authentication happens upstream at the API gateway; this
// service trusts the forwarded identity.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

// persistenceTimeout bounds every storage-touching request.
const persistenceTimeout = 5 * time.Second

func opContext(ctx echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request().Context(), persistenceTimeout)
}

// Server handles the REST surface of the coordination core.
type Server struct {
	coordinator *coordination.Service

	issueDeliveryCodeHandler commands.IssueDeliveryCodeCommandHandler
	issuePickupCodeHandler   commands.IssuePickupCodeCommandHandler
	confirmDeliveryHandler   commands.ConfirmDeliveryCommandHandler
	unassignOrderHandler     commands.UnassignOrderCommandHandler

	verifyCodeHandler queries.VerifyDeliveryCodeQueryHandler
}

// NewServer creates an HTTP server over the given use cases.
func NewServer(
	coordinator *coordination.Service,
	issueDeliveryCodeHandler commands.IssueDeliveryCodeCommandHandler,
	issuePickupCodeHandler commands.IssuePickupCodeCommandHandler,
	confirmDeliveryHandler commands.ConfirmDeliveryCommandHandler,
	unassignOrderHandler commands.UnassignOrderCommandHandler,
	verifyCodeHandler queries.VerifyDeliveryCodeQueryHandler,
) *Server {
	return &Server{
		coordinator:              coordinator,
		issueDeliveryCodeHandler: issueDeliveryCodeHandler,
		issuePickupCodeHandler:   issuePickupCodeHandler,
		confirmDeliveryHandler:   confirmDeliveryHandler,
		unassignOrderHandler:     unassignOrderHandler,
		verifyCodeHandler:        verifyCodeHandler,
	}
}

// RegisterRoutes mounts every endpoint on the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo, ws *WSHandler) {
	e.GET("/health", s.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/ws", ws.Serve)

	v1 := e.Group("/api/v1")
	v1.POST("/orders/:id/claim", s.ClaimOrder)
	v1.POST("/orders/:id/unassign", s.UnassignOrder)
	v1.POST("/orders/:id/delivery-code", s.IssueDeliveryCode)
	v1.POST("/orders/:id/pickup-code", s.IssuePickupCode)
	v1.POST("/orders/:id/verify-code", s.VerifyCode)
	v1.POST("/orders/:id/confirm-delivery", s.ConfirmDelivery)
}

// ErrorResponse is the JSON error body of every failed request.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Healthy")
}

type claimRequest struct {
	AgentID string `json:"agentId"`
}

// ClaimOrder handles POST /api/v1/orders/:id/claim - assigns the order to the
// claiming agent. Agents may only claim for themselves; admins may claim on
// behalf of any agent. Exactly one of several concurrent claims wins; the
// losers get 409.
func (s *Server) ClaimOrder(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, "order id is not a valid UUID")
	}
	actor, err := actorFromRequest(ctx)
	if err != nil {
		return jsonError(ctx, http.StatusUnauthorized, "missing or invalid identity headers")
	}

	var req claimRequest
	if err = ctx.Bind(&req); err != nil {
		return jsonError(ctx, http.StatusBadRequest, "invalid request body")
	}
	agentID, err := kernel.UUIDFromString(req.AgentID)
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, "agentId is not a valid UUID")
	}
	if !actor.IsAdmin() && !(actor.IsAgent() && actor.ID.IsEqual(agentID)) {
		return jsonError(ctx, http.StatusForbidden, "agents may only claim orders for themselves")
	}

	reqCtx, cancel := opContext(ctx)
	defer cancel()
	if err = s.coordinator.ClaimOrder(reqCtx, orderID, agentID); err != nil {
		return domainError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// UnassignOrder handles POST /api/v1/orders/:id/unassign - an operator clears
// the assignment so the order returns to the claimable pool.
func (s *Server) UnassignOrder(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, "order id is not a valid UUID")
	}
	actor, err := actorFromRequest(ctx)
	if err != nil {
		return jsonError(ctx, http.StatusUnauthorized, "missing or invalid identity headers")
	}

	cmd, err := commands.NewUnassignOrderCommand(orderID, actor, time.Now())
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, err.Error())
	}

	reqCtx, cancel := opContext(ctx)
	defer cancel()
	if err = s.unassignOrderHandler.Handle(reqCtx, cmd); err != nil {
		return domainError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

type codeResponse struct {
	Code string `json:"code"`
}

// IssueDeliveryCode handles POST /api/v1/orders/:id/delivery-code - issues or
// re-reads the order's 6-digit hand-off code. Only the order's buyer or an
// admin may ask.
func (s *Server) IssueDeliveryCode(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, "order id is not a valid UUID")
	}
	actor, err := actorFromRequest(ctx)
	if err != nil {
		return jsonError(ctx, http.StatusUnauthorized, "missing or invalid identity headers")
	}

	cmd, err := commands.NewIssueDeliveryCodeCommand(orderID, actor)
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, err.Error())
	}

	reqCtx, cancel := opContext(ctx)
	defer cancel()
	code, err := s.issueDeliveryCodeHandler.Handle(reqCtx, cmd)
	if err != nil {
		return domainError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, codeResponse{Code: code})
}

// IssuePickupCode handles POST /api/v1/orders/:id/pickup-code - issues or
// re-reads the order's 10-digit pickup-site code.
func (s *Server) IssuePickupCode(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, "order id is not a valid UUID")
	}
	actor, err := actorFromRequest(ctx)
	if err != nil {
		return jsonError(ctx, http.StatusUnauthorized, "missing or invalid identity headers")
	}

	cmd, err := commands.NewIssuePickupCodeCommand(orderID, actor)
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, err.Error())
	}

	reqCtx, cancel := opContext(ctx)
	defer cancel()
	code, err := s.issuePickupCodeHandler.Handle(reqCtx, cmd)
	if err != nil {
		return domainError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, codeResponse{Code: code})
}

type verifyCodeRequest struct {
	AgentID string `json:"agentId"`
	Code    string `json:"code"`
}

// VerifyCode handles POST /api/v1/orders/:id/verify-code - checks a submitted
// code without consuming it or mutating the order.
func (s *Server) VerifyCode(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, "order id is not a valid UUID")
	}

	var req verifyCodeRequest
	if err = ctx.Bind(&req); err != nil {
		return jsonError(ctx, http.StatusBadRequest, "invalid request body")
	}
	agentID, err := kernel.UUIDFromString(req.AgentID)
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, "agentId is not a valid UUID")
	}

	query, err := queries.NewVerifyDeliveryCodeQuery(orderID, agentID, req.Code)
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, err.Error())
	}

	reqCtx, cancel := opContext(ctx)
	defer cancel()
	if err = s.verifyCodeHandler.Handle(reqCtx, query); err != nil {
		return domainError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

type confirmDeliveryRequest struct {
	AgentID   string  `json:"agentId"`
	Code      string  `json:"code"`
	ProofRef  string  `json:"proofRef,omitempty"`
	Notes     string  `json:"notes,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ConfirmDelivery handles POST /api/v1/orders/:id/confirm-delivery - the
// assigned agent submits the buyer's code to settle the delivery.
func (s *Server) ConfirmDelivery(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, "order id is not a valid UUID")
	}

	var req confirmDeliveryRequest
	if err = ctx.Bind(&req); err != nil {
		return jsonError(ctx, http.StatusBadRequest, "invalid request body")
	}
	agentID, err := kernel.UUIDFromString(req.AgentID)
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, "agentId is not a valid UUID")
	}
	location, err := kernel.NewGeoPoint(req.Latitude, req.Longitude)
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, "coordinates out of range")
	}

	cmd, err := commands.NewConfirmDeliveryCommand(
		orderID, agentID, req.Code, req.ProofRef, req.Notes, location, time.Now())
	if err != nil {
		return jsonError(ctx, http.StatusBadRequest, err.Error())
	}

	reqCtx, cancel := opContext(ctx)
	defer cancel()
	if err = s.confirmDeliveryHandler.Handle(reqCtx, cmd); err != nil {
		if errors.Is(err, confirmation.ErrInvalidCode) {
			metrics.Confirmations.WithLabelValues("invalid_code").Inc()
		} else {
			metrics.Confirmations.WithLabelValues("rejected").Inc()
		}
		return domainError(ctx, err)
	}
	metrics.Confirmations.WithLabelValues("confirmed").Inc()
	return ctx.NoContent(http.StatusNoContent)
}

// actorFromRequest reads the forwarded identity headers.
func actorFromRequest(ctx echo.Context) (kernel.Actor, error) {
	id, err := kernel.UUIDFromString(ctx.Request().Header.Get(HeaderUserID))
	if err != nil {
		return kernel.Actor{}, err
	}
	return kernel.NewActor(id, kernel.Role(ctx.Request().Header.Get(HeaderUserRole)))
}

func jsonError(ctx echo.Context, status int, message string) error {
	return ctx.JSON(status, ErrorResponse{Code: status, Message: message})
}

// domainError maps core errors onto HTTP statuses.
func domainError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return jsonError(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrAlreadyAssigned),
		errors.Is(err, order.ErrAlreadyTerminal),
		errors.Is(err, order.ErrInvalidTransition):
		return jsonError(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, order.ErrNotAssigned),
		errors.Is(err, commands.ErrCodeRequesterNotAllowed),
		errors.Is(err, commands.ErrAgentNotEligible):
		return jsonError(ctx, http.StatusForbidden, err.Error())
	case errors.Is(err, confirmation.ErrInvalidCode):
		return jsonError(ctx, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return jsonError(ctx, http.StatusBadRequest, err.Error())
	default:
		return jsonError(ctx, http.StatusInternalServerError, "internal error")
	}
}
