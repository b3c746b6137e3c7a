package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fundhaus/fundhaus/internal/escrow"
	"github.com/fundhaus/fundhaus/internal/escrow/event"
	"github.com/fundhaus/fundhaus/internal/escrow/service"
	apperrors "github.com/fundhaus/fundhaus/internal/platform/errors"
	"github.com/fundhaus/fundhaus/internal/wallet"
)

// Server holds the handler dependencies for the HTTP API.
type Server struct {
	ledger *service.Ledger
	wallet *wallet.Service
	signer *TokenSigner
	logger zerolog.Logger
}

// NewServer wires the ledger and wallet services into an HTTP handler set.
func NewServer(ledger *service.Ledger, walletSvc *wallet.Service, signer *TokenSigner, logger zerolog.Logger) *Server {
	return &Server{
		ledger: ledger,
		wallet: walletSvc,
		signer: signer,
		logger: logger,
	}
}

type campaignResponse struct {
	ID            int64  `json:"id"`
	Owner         string `json:"owner"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	Image         string `json:"image,omitempty"`
	Goal          int64  `json:"goal"`
	Deadline      string `json:"deadline"`
	CurrentAmount int64  `json:"current_amount"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func toCampaignResponse(c escrow.Campaign) campaignResponse {
	return campaignResponse{
		ID:            c.ID,
		Owner:         c.Owner,
		Title:         c.Title,
		Description:   c.Description,
		Image:         c.Image,
		Goal:          c.Goal,
		Deadline:      c.Deadline.UTC().Format(time.RFC3339),
		CurrentAmount: c.CurrentAmount,
		Status:        c.Status.String(),
		CreatedAt:     c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type accountResponse struct {
	Address string `json:"address"`
	Balance int64  `json:"balance"`
	Token   string `json:"token,omitempty"`
}

type eventResponse struct {
	Seq       uint64          `json:"seq"`
	Type      string          `json:"type"`
	Actor     string          `json:"actor"`
	Timestamp string          `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

func toEventResponse(e event.Event) eventResponse {
	return eventResponse{
		Seq:       e.Seq,
		Type:      string(e.Type),
		Actor:     e.Actor,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		Payload:   json.RawMessage(e.PayloadJSON),
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createAccountRequest struct {
	Address string `json:"address"`
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	// The body is optional; an omitted address gets a generated one.
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid payload")
		return
	}
	account, err := s.wallet.CreateAccount(r.Context(), req.Address)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	token, err := s.signer.Mint(account.Address)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, accountResponse{
		Address: account.Address,
		Balance: account.Balance,
		Token:   token,
	})
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	account, err := s.wallet.Account(r.Context(), address)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{
		Address: account.Address,
		Balance: account.Balance,
	})
}

type depositRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if CallerFromContext(r.Context()) != address {
		s.writeError(w, r, escrow.ErrUnauthorized)
		return
	}
	var req depositRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid payload")
		return
	}
	account, err := s.wallet.Deposit(r.Context(), address, req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{
		Address: account.Address,
		Balance: account.Balance,
	})
}

type createCampaignRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Goal        int64  `json:"goal"`
	Deadline    string `json:"deadline"`
}

func (s *Server) createCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid payload")
		return
	}
	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		writeBadRequest(w, "deadline must be an RFC 3339 timestamp")
		return
	}
	campaign, err := s.ledger.CreateCampaign(r.Context(), escrow.CreateCampaignInput{
		Owner:       CallerFromContext(r.Context()),
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		Goal:        req.Goal,
		Deadline:    deadline,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCampaignResponse(campaign))
}

func (s *Server) listCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := s.ledger.Campaigns(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := make([]campaignResponse, 0, len(campaigns))
	for _, c := range campaigns {
		items = append(items, toCampaignResponse(c))
	}
	count, err := s.ledger.CampaignCount(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaigns": items,
		"count":     count,
	})
}

func (s *Server) getCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := s.campaignID(w, r)
	if !ok {
		return
	}
	campaign, err := s.ledger.Campaign(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCampaignResponse(campaign))
}

func (s *Server) getDonators(w http.ResponseWriter, r *http.Request) {
	id, ok := s.campaignID(w, r)
	if !ok {
		return
	}
	donators, donations, err := s.ledger.Donators(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if donators == nil {
		donators = []string{}
	}
	if donations == nil {
		donations = []int64{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"donators":  donators,
		"donations": donations,
	})
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := s.campaignID(w, r)
	if !ok {
		return
	}
	events, err := s.ledger.Events(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := make([]eventResponse, 0, len(events))
	for _, e := range events {
		items = append(items, toEventResponse(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": items})
}

type donateRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) donate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.campaignID(w, r)
	if !ok {
		return
	}
	var req donateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid payload")
		return
	}
	campaign, err := s.ledger.Donate(r.Context(), CallerFromContext(r.Context()), id, req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCampaignResponse(campaign))
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	id, ok := s.campaignID(w, r)
	if !ok {
		return
	}
	amount, err := s.ledger.WithdrawFunds(r.Context(), CallerFromContext(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"amount": amount})
}

func (s *Server) refund(w http.ResponseWriter, r *http.Request) {
	id, ok := s.campaignID(w, r)
	if !ok {
		return
	}
	amount, err := s.ledger.ClaimRefund(r.Context(), CallerFromContext(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"amount": amount})
}

func (s *Server) deleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := s.campaignID(w, r)
	if !ok {
		return
	}
	if err := s.ledger.DeleteCampaign(r.Context(), CallerFromContext(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// campaignID parses the {id} route parameter. Campaign ids are non-negative
// integers assigned in creation order.
func (s *Server) campaignID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		writeBadRequest(w, "campaign id must be a non-negative integer")
		return 0, false
	}
	return id, true
}

type errorBody struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	code := apperrors.GetCode(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		message = "internal error"
	}
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:     string(code),
		Message:  message,
		Metadata: apperrors.GetMetadata(err),
	}})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorBody{
		Code:    "BAD_REQUEST",
		Message: message,
	}})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: errorBody{
		Code:    "UNAUTHENTICATED",
		Message: message,
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(v)
}
