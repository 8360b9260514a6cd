package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"complaint-service/internal/http/middleware"
	"complaint-service/internal/model"
	"complaint-service/internal/service"
)

type Handler struct {
	complaintService *service.ComplaintService
	log              zerolog.Logger
}

func NewHandler(complaintService *service.ComplaintService, log zerolog.Logger) *Handler {
	return &Handler{
		complaintService: complaintService,
		log:              log,
	}
}

type complainantPayload struct {
	FullName               string     `json:"full_name" binding:"required"`
	Email                  string     `json:"email"`
	Phone                  string     `json:"phone"`
	Address                string     `json:"address"`
	DateOfBirth            *time.Time `json:"date_of_birth"`
	PreferredContactMethod string     `json:"preferred_contact_method"`
}

type policyPayload struct {
	PolicyNumber string `json:"policy_number"`
	Insurer      string `json:"insurer"`
	Broker       string `json:"broker"`
	Product      string `json:"product"`
	Scheme       string `json:"scheme"`
}

func (h *Handler) createComplaint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var req struct {
		Source             string             `json:"source" binding:"required"`
		Description        string             `json:"description" binding:"required"`
		Category           string             `json:"category" binding:"required"`
		Reason             string             `json:"reason"`
		ReceivedAt         time.Time          `json:"received_at" binding:"required"`
		FCAComplaint       bool               `json:"fca_complaint"`
		FCARationale       string             `json:"fca_rationale"`
		VulnerabilityFlag  bool               `json:"vulnerability_flag"`
		VulnerabilityNotes string             `json:"vulnerability_notes"`
		Complainant        complainantPayload `json:"complainant" binding:"required"`
		Policy             policyPayload      `json:"policy"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.CreateComplaintInput{
		Source:             req.Source,
		Description:        req.Description,
		Category:           req.Category,
		Reason:             req.Reason,
		ReceivedAt:         req.ReceivedAt,
		FCAComplaint:       req.FCAComplaint,
		FCARationale:       req.FCARationale,
		VulnerabilityFlag:  req.VulnerabilityFlag,
		VulnerabilityNotes: req.VulnerabilityNotes,
		Complainant: service.ComplainantInput{
			FullName:               req.Complainant.FullName,
			Email:                  req.Complainant.Email,
			Phone:                  req.Complainant.Phone,
			Address:                req.Complainant.Address,
			DateOfBirth:            req.Complainant.DateOfBirth,
			PreferredContactMethod: req.Complainant.PreferredContactMethod,
		},
		Policy: service.PolicyInput{
			PolicyNumber: req.Policy.PolicyNumber,
			Insurer:      req.Policy.Insurer,
			Broker:       req.Policy.Broker,
			Product:      req.Policy.Product,
			Scheme:       req.Policy.Scheme,
		},
	}

	complaint, err := h.complaintService.Create(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(complaint))
}

func (h *Handler) listComplaints(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	opts, err := parseComplaintQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	complaints, err := h.complaintService.List(c.Request.Context(), principal, opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": complaints}))
}

func (h *Handler) getComplaint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	complaint, err := h.complaintService.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(complaint))
}

func (h *Handler) updateComplaint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	var req struct {
		Source             *string `json:"source"`
		Description        *string `json:"description"`
		Category           *string `json:"category"`
		Reason             *string `json:"reason"`
		FCAComplaint       *bool   `json:"fca_complaint"`
		FCARationale       *string `json:"fca_rationale"`
		VulnerabilityFlag  *bool   `json:"vulnerability_flag"`
		VulnerabilityNotes *string `json:"vulnerability_notes"`
		IsEscalated        *bool   `json:"is_escalated"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	complaint, err := h.complaintService.Update(c.Request.Context(), principal, id, service.UpdateComplaintInput{
		Source:             req.Source,
		Description:        req.Description,
		Category:           req.Category,
		Reason:             req.Reason,
		FCAComplaint:       req.FCAComplaint,
		FCARationale:       req.FCARationale,
		VulnerabilityFlag:  req.VulnerabilityFlag,
		VulnerabilityNotes: req.VulnerabilityNotes,
		IsEscalated:        req.IsEscalated,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(complaint))
}

func (h *Handler) deleteComplaint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	if err := h.complaintService.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "deleted"}))
}

func (h *Handler) listComplaintEvents(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	events, err := h.complaintService.ListEvents(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": events}))
}

func (h *Handler) acknowledgeComplaint(c *gin.Context) {
	h.runTransition(c, h.complaintService.Acknowledge)
}

func (h *Handler) startInvestigation(c *gin.Context) {
	h.runTransition(c, h.complaintService.StartInvestigation)
}

func (h *Handler) draftResponse(c *gin.Context) {
	h.runTransition(c, h.complaintService.DraftResponse)
}

func (h *Handler) issueFinalResponse(c *gin.Context) {
	h.runTransition(c, h.complaintService.IssueFinalResponse)
}

// runTransition serves the argument-free lifecycle steps, which all share
// the same request shape.
func (h *Handler) runTransition(c *gin.Context, step func(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Complaint, error)) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	complaint, err := step(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(complaint))
}

func (h *Handler) recordOutcome(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	var req struct {
		Outcome   string `json:"outcome" binding:"required"`
		Rationale string `json:"rationale"`
		Notes     string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	outcome := model.OutcomeType(strings.ToLower(strings.TrimSpace(req.Outcome)))

	complaint, err := h.complaintService.RecordOutcome(c.Request.Context(), principal, id, outcome, req.Rationale, req.Notes)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(complaint))
}

func (h *Handler) closeComplaint(c *gin.Context) {
	h.closeWith(c, h.complaintService.Close)
}

func (h *Handler) closeNonReportable(c *gin.Context) {
	h.closeWith(c, h.complaintService.CloseNonReportable)
}

func (h *Handler) closeWith(c *gin.Context, step func(ctx context.Context, principal model.Principal, id uuid.UUID, closedAt *time.Time, comment string) (*model.Complaint, error)) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	var req struct {
		ClosedAt *time.Time `json:"closed_at"`
		Comment  string     `json:"comment"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
	}

	complaint, err := step(c.Request.Context(), principal, id, req.ClosedAt, req.Comment)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(complaint))
}

func (h *Handler) escalateComplaint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	var req struct {
		ManagerID string `json:"manager_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	managerID, err := uuid.Parse(strings.TrimSpace(req.ManagerID))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid manager_id"))
		return
	}

	complaint, err := h.complaintService.Escalate(c.Request.Context(), principal, id, managerID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(complaint))
}

func (h *Handler) reopenComplaint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
	}

	complaint, err := h.complaintService.Reopen(c.Request.Context(), principal, id, req.Reason)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(complaint))
}

func (h *Handler) referToFOS(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	var req struct {
		FOSReference string `json:"fos_reference"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
	}

	complaint, err := h.complaintService.ReferToFOS(c.Request.Context(), principal, id, req.FOSReference)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(complaint))
}

func (h *Handler) assignHandler(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	var req struct {
		HandlerID string `json:"handler_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	handlerID, err := uuid.Parse(strings.TrimSpace(req.HandlerID))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid handler_id"))
		return
	}

	complaint, err := h.complaintService.AssignHandler(c.Request.Context(), principal, id, handlerID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(complaint))
}

func (h *Handler) addRedress(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	var req struct {
		PaymentType       string   `json:"payment_type" binding:"required"`
		Amount            *float64 `json:"amount"`
		Rationale         string   `json:"rationale"`
		ActionDescription string   `json:"action_description"`
		ActionStatus      string   `json:"action_status"`
		Notes             string   `json:"notes"`
		OutcomeID         *string  `json:"outcome_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.RedressInput{
		PaymentType:       req.PaymentType,
		Amount:            req.Amount,
		Rationale:         req.Rationale,
		ActionDescription: req.ActionDescription,
		ActionStatus:      model.ActionStatus(strings.ToLower(strings.TrimSpace(req.ActionStatus))),
		Notes:             req.Notes,
	}
	if req.OutcomeID != nil {
		outcomeID, err := uuid.Parse(strings.TrimSpace(*req.OutcomeID))
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid outcome_id"))
			return
		}
		input.OutcomeID = &outcomeID
	}

	payment, err := h.complaintService.AddRedress(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(payment))
}

func (h *Handler) updateRedress(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}
	redressID, err := parseID(c, "rid")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid redress id"))
		return
	}

	var req struct {
		Amount            *float64 `json:"amount"`
		Rationale         *string  `json:"rationale"`
		ActionDescription *string  `json:"action_description"`
		ActionStatus      *string  `json:"action_status"`
		Notes             *string  `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.RedressUpdateInput{
		Amount:            req.Amount,
		Rationale:         req.Rationale,
		ActionDescription: req.ActionDescription,
		Notes:             req.Notes,
	}
	if req.ActionStatus != nil {
		status := model.ActionStatus(strings.ToLower(strings.TrimSpace(*req.ActionStatus)))
		input.ActionStatus = &status
	}

	payment, err := h.complaintService.UpdateRedress(c.Request.Context(), principal, id, redressID, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(payment))
}

func (h *Handler) addCommunication(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	var req struct {
		Channel         string    `json:"channel" binding:"required"`
		Direction       string    `json:"direction" binding:"required"`
		Summary         string    `json:"summary" binding:"required"`
		OccurredAt      time.Time `json:"occurred_at" binding:"required"`
		IsFinalResponse bool      `json:"is_final_response"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	comm, err := h.complaintService.AddCommunication(c.Request.Context(), principal, id, service.CommunicationInput{
		Channel:         model.CommunicationChannel(strings.ToLower(strings.TrimSpace(req.Channel))),
		Direction:       model.CommunicationDirection(strings.ToLower(strings.TrimSpace(req.Direction))),
		Summary:         req.Summary,
		OccurredAt:      req.OccurredAt,
		IsFinalResponse: req.IsFinalResponse,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(comm))
}

func (h *Handler) addTask(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	var req struct {
		Title        string     `json:"title" binding:"required"`
		Description  string     `json:"description"`
		Status       string     `json:"status"`
		DueDate      *time.Time `json:"due_date"`
		AssignedToID *string    `json:"assigned_to_id"`
		IsChecklist  bool       `json:"is_checklist"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      model.TaskStatus(strings.ToLower(strings.TrimSpace(req.Status))),
		DueDate:     req.DueDate,
		IsChecklist: req.IsChecklist,
	}
	if req.AssignedToID != nil {
		assignedTo, err := uuid.Parse(strings.TrimSpace(*req.AssignedToID))
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid assigned_to_id"))
			return
		}
		input.AssignedToID = &assignedTo
	}

	task, err := h.complaintService.AddTask(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(task))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch service.KindOf(err) {
	case service.KindValidation:
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case service.KindPrecondition:
		c.JSON(http.StatusPreconditionFailed, errorResponse(err.Error()))
	case service.KindAuthorization:
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case service.KindConflict:
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case service.KindNotFound:
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func parseComplaintQuery(c *gin.Context) (service.ListComplaintsOptions, error) {
	var opts service.ListComplaintsOptions

	if statusParam := c.Query("status"); statusParam != "" {
		for _, val := range splitCSV(statusParam) {
			opts.Statuses = append(opts.Statuses, model.ComplaintStatus(strings.ToLower(val)))
		}
	}
	if handlerID := strings.TrimSpace(c.Query("handler_id")); handlerID != "" {
		id, err := uuid.Parse(handlerID)
		if err != nil {
			return opts, err
		}
		opts.HandlerID = &id
	}
	if outcome := strings.TrimSpace(c.Query("outcome")); outcome != "" {
		opts.Outcome = model.OutcomeType(strings.ToLower(outcome))
	}
	if vulnerability := strings.TrimSpace(c.Query("vulnerability")); vulnerability != "" {
		v, err := strconv.ParseBool(vulnerability)
		if err != nil {
			return opts, err
		}
		opts.Vulnerability = &v
	}
	if overdue := strings.TrimSpace(c.Query("overdue")); overdue != "" {
		v, err := strconv.ParseBool(overdue)
		if err != nil {
			return opts, err
		}
		opts.Overdue = &v
	}
	if dateFrom := strings.TrimSpace(c.Query("date_from")); dateFrom != "" {
		ts, err := time.Parse(time.RFC3339, dateFrom)
		if err != nil {
			return opts, err
		}
		opts.DateFrom = &ts
	}
	if dateTo := strings.TrimSpace(c.Query("date_to")); dateTo != "" {
		ts, err := time.Parse(time.RFC3339, dateTo)
		if err != nil {
			return opts, err
		}
		opts.DateTo = &ts
	}
	if limit := strings.TrimSpace(c.Query("limit")); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil {
			opts.Limit = v
		}
	}
	if offset := strings.TrimSpace(c.Query("offset")); offset != "" {
		if v, err := strconv.Atoi(offset); err == nil {
			opts.Offset = v
		}
	}

	opts.Product = strings.TrimSpace(c.Query("product"))
	opts.Search = strings.TrimSpace(c.Query("search"))

	return opts, nil
}

func parseID(c *gin.Context, param string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(c.Param(param)))
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

type responseEnvelope struct {
	Data interface{} `json:"data"`
}

func successResponse(data interface{}) responseEnvelope {
	return responseEnvelope{Data: data}
}

func errorResponse(msg string) gin.H {
	return gin.H{"error": msg}
}
