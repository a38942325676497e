package labops

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/blutspende/labops/config"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewRestyClient builds the client for the LIMS, the ticket system and the OIDC provider. Reads that
// fail on the transport or with a 5xx are retried, writes never are.
func NewRestyClient(ctx context.Context, configuration *config.Configuration, useProxy bool) *resty.Client {
	client := newBaseRestyClient(ctx, configuration).
		AddRetryCondition(retryIdempotentOnServerError)

	if useProxy && configuration.Proxy != "" {
		client.SetProxy(configuration.Proxy)
	}

	return client
}

// NewRestyClientWithAuthManager adds a client-credential bearer token to every request and fetches
// a fresh one once when the callee answers 401.
func NewRestyClientWithAuthManager(ctx context.Context, configuration *config.Configuration, authManager AuthManager) *resty.Client {
	return newBaseRestyClient(ctx, configuration).
		AddRetryCondition(retryIdempotentOnServerError).
		AddRetryCondition(retryWithRefreshedCredential(authManager)).
		OnBeforeRequest(func(client *resty.Client, request *resty.Request) error {
			authToken, err := authManager.GetClientCredential()
			if err != nil {
				log.Error().Err(err).Str("url", request.URL).Msg("fetching client credential failed")
				return err
			}
			request.SetAuthToken(authToken)
			return nil
		})
}

func newBaseRestyClient(ctx context.Context, configuration *config.Configuration) *resty.Client {
	client := resty.New().
		SetTimeout(time.Duration(configuration.StandardAPIClientTimeoutSeconds) * time.Second).
		SetRetryCount(configuration.APIClientRetryCount).
		SetRetryWaitTime(time.Duration(configuration.APIClientRetryWaitMillis) * time.Millisecond).
		SetRetryMaxWaitTime(10 * time.Duration(configuration.APIClientRetryWaitMillis) * time.Millisecond).
		OnBeforeRequest(withDefaultContext(ctx, configuration.LogLevel)).
		OnAfterResponse(logResponse)

	if configuration.Development {
		client.SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true,
		})
	}

	return client
}

// withDefaultContext falls back to the application context when a call did not bring its own.
func withDefaultContext(ctx context.Context, level zerolog.Level) resty.RequestMiddleware {
	return func(client *resty.Client, request *resty.Request) error {
		if request.Context() == context.Background() {
			request.SetContext(ctx)
		}
		if level <= zerolog.DebugLevel {
			request.EnableTrace()
		}
		return nil
	}
}

func logResponse(client *resty.Client, response *resty.Response) error {
	if !response.IsError() {
		log.Debug().Str("method", response.Request.Method).Str("url", response.Request.URL).
			Int("status", response.StatusCode()).Dur("took", response.Time()).Msg("outgoing request")
		return nil
	}
	log.Warn().Str("method", response.Request.Method).Str("url", response.Request.URL).
		Int("status", response.StatusCode()).Dur("took", response.Time()).Msg("outgoing request failed")
	return nil
}

func retryIdempotentOnServerError(response *resty.Response, err error) bool {
	if response == nil || response.Request == nil {
		return false
	}
	switch response.Request.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
	default:
		return false
	}
	return err != nil || response.StatusCode() >= http.StatusInternalServerError
}

func retryWithRefreshedCredential(authManager AuthManager) resty.RetryConditionFunc {
	return func(response *resty.Response, err error) bool {
		if response == nil || response.StatusCode() != http.StatusUnauthorized {
			return false
		}
		if err := authManager.RefreshClientCredential(); err != nil {
			log.Error().Err(err).Msg("refreshing client credential failed, not retrying")
			return false
		}
		return true
	}
}
