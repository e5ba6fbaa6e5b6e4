package validator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/cel-go/cel"
	"github.com/jkroepke/pam-oauth2-device/internal/oauth2/types"
)

const (
	celVarLocalUsername = "localUsername"
	celVarTokenClaims   = "tokenClaims"
)

func compileCEL(expression string) (cel.Program, error) {
	env, err := cel.NewEnv(
		cel.Variable(celVarLocalUsername, cel.StringType),
		cel.Variable(celVarTokenClaims, cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return prg, nil
}

func (v *Validator) checkCEL(ctx context.Context, claims types.Claims, localUsername string) error {
	tokenClaims := claims.Raw
	if tokenClaims == nil {
		tokenClaims = map[string]any{}
	}

	result, _, err := v.celEvalPrg.Eval(map[string]any{
		celVarLocalUsername: localUsername,
		celVarTokenClaims:   tokenClaims,
	})
	if err != nil {
		v.logger.WarnContext(ctx, "failed to evaluate CEL expression", slog.Any("err", err))

		return fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	resultValue, ok := result.Value().(bool)
	if !ok {
		return ErrCELNoBooleanResult
	}

	if !resultValue {
		v.logger.WarnContext(ctx, "CEL validation failed")

		return ErrCELValidationFailed
	}

	return nil
}
