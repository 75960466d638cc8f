package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/adsight/adsight/chat"
	"github.com/adsight/adsight/chat/agents"
	"github.com/adsight/adsight/chat/state"
)

type chatMessageRequest struct {
	Message    string `json:"message"`
	Domain     string `json:"domain"`
	SessionID  string `json:"session_id,omitempty"`
	AccountID  string `json:"account_id,omitempty"`
	PropertyID string `json:"property_id,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
}

type chatMessageResponse struct {
	SessionID           string               `json:"session_id"`
	AnswerText          string               `json:"answer_text,omitempty"`
	ClarificationPrompt string               `json:"clarification_prompt,omitempty"`
	CandidateOptions    []state.Candidate    `json:"candidate_options,omitempty"`
	OperationsInvoked   []string             `json:"operations_invoked,omitempty"`
	Visualization       *state.Visualization `json:"visualization,omitempty"`
	IsComplete          bool                 `json:"is_complete"`
}

func (s *Server) handleMessage(c echo.Context) error {
	var req chatMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	resp, err := s.orchestrator.HandleMessage(c.Request().Context(), chat.Request{
		Message:   req.Message,
		Domain:    state.Domain(req.Domain),
		SessionID: req.SessionID,
		UserEmail: c.Request().Header.Get("X-User-Email"),
		AuthToken: bearerToken(c),
		Context: agents.ResolvedContext{
			AccountID:  req.AccountID,
			PropertyID: req.PropertyID,
			CustomerID: req.CustomerID,
			PageID:     req.PageID,
		},
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, chatMessageResponse{
		SessionID:           resp.SessionID,
		AnswerText:          resp.AnswerText,
		ClarificationPrompt: resp.ClarificationPrompt,
		CandidateOptions:    resp.CandidateOptions,
		OperationsInvoked:   resp.OperationsInvoked,
		Visualization:       resp.Visualization,
		IsComplete:          resp.IsComplete,
	})
}

type domainInfoResponse struct {
	Domain       string   `json:"domain"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
}

func (s *Server) listDomains(c echo.Context) error {
	infos := s.orchestrator.DomainInfo()
	out := make([]domainInfoResponse, 0, len(infos))
	for _, info := range infos {
		out = append(out, domainInfoResponse{
			Domain:       string(info.Domain),
			Description:  info.Description,
			Capabilities: info.Capabilities,
		})
	}
	return c.JSON(http.StatusOK, out)
}

type sessionResponse struct {
	UID        string          `json:"uid"`
	Domain     string          `json:"domain"`
	Transcript json.RawMessage `json:"transcript"`
	CreatedTs  int64           `json:"created_ts"`
	UpdatedTs  int64           `json:"updated_ts"`
}

func (s *Server) getSession(c echo.Context) error {
	uid := c.Param("uid")
	if strings.TrimSpace(uid) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session uid required")
	}

	session, err := s.Store.GetChatSessionByUID(c.Request().Context(), uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load session").SetInternal(err)
	}
	if session == nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	transcript := session.Transcript
	if transcript == "" {
		transcript = "[]"
	}

	return c.JSON(http.StatusOK, sessionResponse{
		UID:        session.UID,
		Domain:     session.Domain,
		Transcript: json.RawMessage(transcript),
		CreatedTs:  session.CreatedTs,
		UpdatedTs:  session.UpdatedTs,
	})
}

func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
