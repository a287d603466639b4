package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"bou.ke/monkey"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testBaseURL = "http://ecs-deploy.test"

func newTestLoginProvider(t *testing.T) *LoginTokenProvider {
	provider := NewLoginTokenProvider(testBaseURL, Credentials{Username: "deploy", Password: "secret"}, zap.NewNop())

	// Activate httpmock for the resty client's HTTP client
	httpmock.ActivateNonDefault(provider.client.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	return provider
}

func signedToken(t *testing.T, expires time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "deploy",
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	signed, err := token.SignedString([]byte("jwt-secret"))
	require.NoError(t, err)
	return signed
}

func TestStaticTokenProvider(t *testing.T) {
	provider := NewStaticTokenProvider("abc")
	token, err := provider.GetToken(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "abc", token)

	assert.False(t, provider.Invalidate())
	token, err = provider.GetToken(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = NewStaticTokenProvider("").GetToken(context.Background())
	assert.Error(t, err)
}

func TestLoginTokenProvider_GetToken(t *testing.T) {
	provider := newTestLoginProvider(t)

	httpmock.RegisterResponder("POST", testBaseURL+loginPath,
		httpmock.NewStringResponder(200, `{"code":200,"expire":"2099-01-01T00:00:00Z","token":"tok-1"}`))

	token, err := provider.GetToken(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	// Second call is served from the cache
	token, err = provider.GetToken(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestLoginTokenProvider_SendsCredentials(t *testing.T) {
	provider := newTestLoginProvider(t)

	httpmock.RegisterResponder("POST", testBaseURL+loginPath,
		func(req *http.Request) (*http.Response, error) {
			var body Credentials
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return httpmock.NewStringResponse(400, err.Error()), nil
			}
			if body.Username != "deploy" || body.Password != "secret" {
				return httpmock.NewStringResponse(401, "{}"), nil
			}
			return httpmock.NewStringResponse(200, `{"code":200,"expire":"2099-01-01T00:00:00Z","token":"tok-creds"}`), nil
		})

	token, err := provider.GetToken(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "tok-creds", token)
}

func TestLoginTokenProvider_Rejected(t *testing.T) {
	provider := newTestLoginProvider(t)

	httpmock.RegisterResponder("POST", testBaseURL+loginPath,
		httpmock.NewStringResponder(401, `{"code":401,"message":"incorrect Username or Password"}`))

	_, err := provider.GetToken(context.Background())
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoginFailed))
}

func TestLoginTokenProvider_UnexpectedStatus(t *testing.T) {
	provider := newTestLoginProvider(t)

	httpmock.RegisterResponder("POST", testBaseURL+loginPath,
		httpmock.NewStringResponder(500, "boom"))

	_, err := provider.GetToken(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestLoginTokenProvider_RefreshesExpiredToken(t *testing.T) {
	fakeTime := time.Date(2023, 01, 01, 12, 0, 0, 0, time.UTC)
	patch := monkey.Patch(time.Now, func() time.Time { return fakeTime })
	t.Cleanup(patch.Unpatch)

	provider := newTestLoginProvider(t)

	// No expire field: the exp claim of the token is used instead
	first := signedToken(t, fakeTime.Add(time.Hour))
	httpmock.RegisterResponder("POST", testBaseURL+loginPath,
		httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{"code": 200, "token": first}))

	token, err := provider.GetToken(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, first, token)

	_, err = provider.GetToken(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	// Move past the expiry minus the refresh margin
	fakeTime = fakeTime.Add(time.Hour - 10*time.Second)
	_, err = provider.GetToken(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestLoginTokenProvider_Invalidate(t *testing.T) {
	provider := newTestLoginProvider(t)

	httpmock.RegisterResponder("POST", testBaseURL+loginPath,
		httpmock.NewStringResponder(200, `{"code":200,"expire":"2099-01-01T00:00:00Z","token":"tok-1"}`))

	_, err := provider.GetToken(context.Background())
	require.NoError(t, err)

	assert.True(t, provider.Invalidate())

	_, err = provider.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestTokenExpiry(t *testing.T) {
	expires, err := tokenExpiry(loginResponse{Token: "ignored", Expire: "2030-05-01T10:00:00Z"})
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC), expires.UTC())

	exp := time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)
	expires, err = tokenExpiry(loginResponse{Token: signedToken(t, exp)})
	assert.NoError(t, err)
	assert.True(t, exp.Equal(expires))

	_, err = tokenExpiry(loginResponse{Token: "not-a-jwt"})
	assert.Error(t, err)
}
