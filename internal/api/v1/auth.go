package v1

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jpd-dfo/spacos/internal/auth"
	"github.com/jpd-dfo/spacos/internal/domain"
)

type RegisterInput struct {
	Body struct {
		Email    string `json:"email" format:"email" doc:"Email address"`
		Password string `json:"password" minLength:"8" maxLength:"256" doc:"Password"`
		Name     string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
	}
}

type RegisterOutput struct {
	Body *domain.User
}

type LoginInput struct {
	Body struct {
		Email    string `json:"email" format:"email" doc:"Email address"`
		Password string `json:"password" doc:"Password"`
	}
}

type TokenPairBody struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type LoginOutput struct {
	Body TokenPairBody
}

type RefreshInput struct {
	Body struct {
		RefreshToken string `json:"refresh_token" doc:"Refresh token"`
	}
}

type RefreshOutput struct {
	Body struct {
		AccessToken string `json:"access_token"`
	}
}

type OAuthStartInput struct {
	Provider string `path:"provider" enum:"google,microsoft" doc:"OAuth provider"`
}

type OAuthStartOutput struct {
	Status   int
	Location string `header:"Location"`
	State    string `header:"X-OAuth-State" doc:"Opaque state the callback must echo"`
}

type OAuthCallbackInput struct {
	Provider string `path:"provider" enum:"google,microsoft" doc:"OAuth provider"`
	Code     string `query:"code" required:"true" doc:"Authorization code"`
	State    string `query:"state" doc:"State issued at the start of the flow"`
}

type OAuthCallbackOutput struct {
	Body TokenPairBody
}

// RegisterAuthRoutes wires signup, login, token refresh and the OAuth
// redirect flow. These endpoints sit outside the authenticated group.
func RegisterAuthRoutes(api huma.API, svc AuthService, providers map[string]*auth.OAuthProvider) {
	huma.Register(api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/auth/register",
		Summary:       "Create an account",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *RegisterInput) (*RegisterOutput, error) {
		user, err := svc.Register(ctx, input.Body.Email, input.Body.Password, input.Body.Name)
		if err != nil {
			if errors.Is(err, auth.ErrUserAlreadyExists) {
				return nil, huma.Error409Conflict("email already registered")
			}
			return nil, huma.Error500InternalServerError("failed to register", err)
		}
		return &RegisterOutput{Body: user}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Log in with email and password",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
		access, refresh, err := svc.Login(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				return nil, huma.Error401Unauthorized("invalid email or password")
			}
			return nil, huma.Error500InternalServerError("failed to log in", err)
		}
		return &LoginOutput{Body: TokenPairBody{AccessToken: access, RefreshToken: refresh}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-token",
		Method:      http.MethodPost,
		Path:        "/auth/refresh",
		Summary:     "Exchange a refresh token for a new access token",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *RefreshInput) (*RefreshOutput, error) {
		access, err := svc.RefreshToken(ctx, input.Body.RefreshToken)
		if err != nil {
			return nil, huma.Error401Unauthorized("invalid refresh token")
		}
		out := &RefreshOutput{}
		out.Body.AccessToken = access
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "oauth-start",
		Method:      http.MethodGet,
		Path:        "/auth/oauth/{provider}",
		Summary:     "Begin an OAuth sign-in",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *OAuthStartInput) (*OAuthStartOutput, error) {
		p, ok := providers[input.Provider]
		if !ok {
			return nil, huma.Error404NotFound("unknown provider " + input.Provider)
		}

		state, err := randomState()
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to generate state", err)
		}

		return &OAuthStartOutput{
			Status:   http.StatusFound,
			Location: p.AuthorizationURL(state),
			State:    state,
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "oauth-callback",
		Method:      http.MethodGet,
		Path:        "/auth/oauth/{provider}/callback",
		Summary:     "Complete an OAuth sign-in",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *OAuthCallbackInput) (*OAuthCallbackOutput, error) {
		p, ok := providers[input.Provider]
		if !ok {
			return nil, huma.Error404NotFound("unknown provider " + input.Provider)
		}

		providerID, email, name, avatarURL, err := p.ExchangeCode(ctx, input.Code)
		if err != nil {
			return nil, huma.Error502BadGateway("provider exchange failed")
		}
		if email == "" {
			return nil, huma.Error400BadRequest("provider returned no email")
		}

		access, refresh, err := svc.LoginOAuth(ctx, input.Provider, providerID, email, name, avatarURL)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to complete sign-in", err)
		}

		return &OAuthCallbackOutput{Body: TokenPairBody{AccessToken: access, RefreshToken: refresh}}, nil
	})
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
