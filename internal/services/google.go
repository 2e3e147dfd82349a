package services

import (
	"context"
	"errors"

	"google.golang.org/api/idtoken"
)

// ExternalIdentity is what a verified Google ID token tells us about the caller.
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// IdentityVerifier checks an external ID token against the provider's keys and expected audience.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*ExternalIdentity, error)
}

var ErrExternalSignInDisabled = errors.New("external sign-in is not configured")

// GoogleVerifier validates Google ID tokens for one OAuth client id.
type GoogleVerifier struct {
	clientID  string
	validator *idtoken.Validator
}

func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	if clientID == "" {
		return nil, ErrExternalSignInDisabled
	}
	v, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleVerifier{clientID: clientID, validator: v}, nil
}

func (g *GoogleVerifier) Verify(ctx context.Context, idToken string) (*ExternalIdentity, error) {
	payload, err := g.validator.Validate(ctx, idToken, g.clientID)
	if err != nil {
		return nil, err
	}
	return identityFromClaims(payload.Subject, payload.Claims), nil
}

// identityFromClaims drops the email when Google marks it unverified so it is never used for linking.
func identityFromClaims(subject string, claims map[string]interface{}) *ExternalIdentity {
	id := &ExternalIdentity{Subject: subject}
	id.Email, _ = claims["email"].(string)
	id.Name, _ = claims["name"].(string)
	id.Picture, _ = claims["picture"].(string)
	if verified, ok := claims["email_verified"].(bool); ok && !verified {
		id.Email = ""
	}
	return id
}
