package outbound

import (
	"context"

	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
)

type OwnerTokens struct {
	Owner  entity.TokenOwner
	Tokens entity.TokenSet
}

type TokenRepository interface {
	Tokens(ctx context.Context, owner entity.TokenOwner) (entity.TokenSet, error)
	// AddToken reports whether the token was new for the owner.
	AddToken(ctx context.Context, owner entity.TokenOwner, token string) (bool, error)
	// RemoveToken strips the token from every owner and returns how many owners held it.
	RemoveToken(ctx context.Context, token string) (int64, error)
	ListWithTokens(ctx context.Context) ([]OwnerTokens, error)
}
