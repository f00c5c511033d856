package location

import (
	"context"
)

type SubmitUseCase interface {
	Execute(ctx context.Context, input SubmitInput) (SubmitOutput, error)
}
