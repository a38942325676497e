package labops

import (
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/blutspende/labops/config"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	oidcURLPart = "/.well-known/openid-configuration"
	// tokens are renewed this long before they expire, so a request never leaves with a dying token
	tokenExpiryLeeway = 30 * time.Second
)

var (
	ErrNoClientCredential = errors.New("no client credential available")
	ErrInvalidTokenType   = errors.New("authentication provider returned a non-bearer token")
)

// AuthManager validates incoming tokens through the provider's key set and hands out the
// client-credential token labops uses towards the LIMS.
type AuthManager interface {
	GetJWKS() (*keyfunc.JWKS, error)
	GetClientCredential() (string, error)
	RefreshClientCredential() error
}

type authManager struct {
	configuration *config.Configuration
	restClient    *resty.Client

	mutex          sync.Mutex
	oidc           *OpenIDConfiguration
	jwks           *keyfunc.JWKS
	accessToken    string
	tokenExpiresAt time.Time
	now            func() time.Time
}

type OpenIDConfiguration struct {
	Issuer        string `json:"issuer"`
	TokenEndpoint string `json:"token_endpoint"`
	JwksURI       string `json:"jwks_uri"`
}

type TokenEndpointResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func NewAuthManager(configuration *config.Configuration, restClient *resty.Client) (AuthManager, error) {
	manager := &authManager{
		configuration: configuration,
		restClient:    restClient,
		now:           time.Now,
	}

	if _, err := manager.GetJWKS(); err != nil {
		log.Error().Err(err).Str("oidc", configuration.OIDCBaseURL).Msg("loading the key set of the authentication provider failed")
		return nil, err
	}

	return manager, nil
}

func (m *authManager) GetJWKS() (*keyfunc.JWKS, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.jwks != nil {
		return m.jwks, nil
	}
	oidc, err := m.openIDConfiguration()
	if err != nil {
		return nil, err
	}
	jwks, err := keyfunc.Get(oidc.JwksURI, keyfunc.Options{
		Client:            newRestyHTTPClient(m.restClient),
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.Error().Err(err).Msg("refreshing the key set of the authentication provider failed")
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "fetching JWKS failed")
	}
	m.jwks = jwks
	return jwks, nil
}

// GetClientCredential returns the cached token while it is valid and fetches a new one otherwise.
func (m *authManager) GetClientCredential() (string, error) {
	m.mutex.Lock()
	valid := m.accessToken != "" && m.now().Before(m.tokenExpiresAt)
	token := m.accessToken
	m.mutex.Unlock()
	if valid {
		return token, nil
	}

	if err := m.RefreshClientCredential(); err != nil {
		return "", errors.Wrap(ErrNoClientCredential, err.Error())
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.accessToken, nil
}

func (m *authManager) RefreshClientCredential() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	oidc, err := m.openIDConfiguration()
	if err != nil {
		return err
	}

	response, err := m.restClient.R().
		SetHeader("Cache-Control", "no-cache").
		SetAuthScheme("Basic").
		SetAuthToken(m.configuration.ClientCredentialAuthHeaderValue).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&TokenEndpointResponse{}).
		Post(oidc.TokenEndpoint)
	if err != nil {
		return errors.Wrap(err, "calling the token endpoint failed")
	}
	if !response.IsSuccess() {
		return errors.Errorf("token endpoint returned %s", response.Status())
	}

	tokenResponse := response.Result().(*TokenEndpointResponse)
	if !strings.EqualFold(tokenResponse.TokenType, "Bearer") {
		log.Error().Str("tokenType", tokenResponse.TokenType).Msg(ErrInvalidTokenType.Error())
		return ErrInvalidTokenType
	}

	m.accessToken = tokenResponse.AccessToken
	m.tokenExpiresAt = m.now().Add(time.Duration(tokenResponse.ExpiresIn)*time.Second - tokenExpiryLeeway)
	log.Debug().Time("expiresAt", m.tokenExpiresAt).Msg("refreshed client credential")
	return nil
}

// openIDConfiguration must be called with the mutex held.
func (m *authManager) openIDConfiguration() (*OpenIDConfiguration, error) {
	if m.oidc != nil {
		return m.oidc, nil
	}

	response, err := m.restClient.R().
		SetHeader("Content-Type", "application/json").
		SetResult(&OpenIDConfiguration{}).
		Get(strings.TrimRight(m.configuration.OIDCBaseURL, "/") + oidcURLPart)
	if err != nil {
		return nil, errors.Wrap(err, "calling the OIDC discovery endpoint failed")
	}
	if !response.IsSuccess() {
		return nil, errors.Errorf("OIDC discovery endpoint returned %s", response.Status())
	}

	m.oidc = response.Result().(*OpenIDConfiguration)
	return m.oidc, nil
}
