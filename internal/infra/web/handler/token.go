package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/DioGolang/GeoDispatch/internal/application/usecase/notification"
	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/go-chi/chi/v5"
)

type TokenService interface {
	Register(ctx context.Context, input notification.RegisterTokenInput) (notification.RegisterTokenOutput, error)
	Status(ctx context.Context, owner entity.TokenOwner) (notification.TokenStatusOutput, error)
}

type Token struct {
	Tokens TokenService
}

func NewTokenHandler(tokens TokenService) *Token {
	return &Token{Tokens: tokens}
}

type tokenRequest struct {
	FCMToken string `json:"fcmToken"`
}

func (h *Token) RegisterDriver(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, entity.OwnerDriver)
}

func (h *Token) RegisterUser(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, entity.OwnerUser)
}

func (h *Token) DriverStatus(w http.ResponseWriter, r *http.Request) {
	h.status(w, r, entity.OwnerDriver)
}

func (h *Token) UserStatus(w http.ResponseWriter, r *http.Request) {
	h.status(w, r, entity.OwnerUser)
}

func (h *Token) register(w http.ResponseWriter, r *http.Request, kind entity.OwnerKind) {
	var body tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	output, err := h.Tokens.Register(r.Context(), notification.RegisterTokenInput{
		Owner: entity.TokenOwner{Kind: kind, ID: chi.URLParam(r, "id")},
		Token: body.FCMToken,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

func (h *Token) status(w http.ResponseWriter, r *http.Request, kind entity.OwnerKind) {
	output, err := h.Tokens.Status(r.Context(), entity.TokenOwner{Kind: kind, ID: chi.URLParam(r, "id")})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}
