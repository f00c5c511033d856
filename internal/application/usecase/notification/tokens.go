package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DioGolang/GeoDispatch/internal/application/port/outbound"
	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/pkg/logger"
)

type RegisterTokenInput struct {
	Owner entity.TokenOwner
	Token string
}

type RegisterTokenOutput struct {
	Added bool `json:"added"`
}

type TokenStatusOutput struct {
	OwnerID      string  `json:"ownerId"`
	HasToken     bool    `json:"hasFcmToken"`
	DeviceCount  int     `json:"deviceCount"`
	TokenPreview *string `json:"fcmTokenPreview"`
}

type TokenUseCase struct {
	Tokens outbound.TokenRepository
	Logger logger.Logger
}

func NewTokenUseCase(tokens outbound.TokenRepository, log logger.Logger) *TokenUseCase {
	return &TokenUseCase{Tokens: tokens, Logger: log}
}

// Register adds the token to the owner's set. Registering a token twice
// leaves one copy.
func (uc *TokenUseCase) Register(ctx context.Context, input RegisterTokenInput) (RegisterTokenOutput, error) {
	if input.Owner.ID == "" {
		return RegisterTokenOutput{}, entity.ErrIDIsRequired
	}
	token := strings.TrimSpace(input.Token)
	if token == "" {
		return RegisterTokenOutput{}, entity.ErrTokenIsRequired
	}

	added, err := uc.Tokens.AddToken(ctx, input.Owner, token)
	if err != nil {
		return RegisterTokenOutput{}, storeError(err)
	}
	uc.Logger.Info(ctx, "Device token registered",
		logger.String("owner_kind", string(input.Owner.Kind)),
		logger.String("owner_id", input.Owner.ID),
		logger.String("token", entity.Preview(token)),
		logger.Bool("added", added),
	)
	return RegisterTokenOutput{Added: added}, nil
}

func (uc *TokenUseCase) Status(ctx context.Context, owner entity.TokenOwner) (TokenStatusOutput, error) {
	if owner.ID == "" {
		return TokenStatusOutput{}, entity.ErrIDIsRequired
	}
	set, err := uc.Tokens.Tokens(ctx, owner)
	if err != nil {
		return TokenStatusOutput{}, storeError(err)
	}
	out := TokenStatusOutput{
		OwnerID:     owner.ID,
		HasToken:    set.Len() > 0,
		DeviceCount: set.Len(),
	}
	if out.HasToken {
		p := entity.Preview(set.Slice()[0])
		out.TokenPreview = &p
	}
	return out, nil
}

func storeError(err error) error {
	if errors.Is(err, entity.ErrEntityNotFound) || errors.Is(err, entity.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", entity.ErrStoreUnavailable, err)
}
