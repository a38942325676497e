package labops

import (
	"net/http"

	"github.com/go-resty/resty/v2"
)

// restyRoundTripper sends plain net/http requests through a resty client, so libraries that
// only accept an *http.Client share its proxy, TLS and timeout settings.
type restyRoundTripper struct {
	restyClient *resty.Client
}

func newRestyHTTPClient(restyClient *resty.Client) *http.Client {
	return &http.Client{Transport: &restyRoundTripper{restyClient: restyClient}}
}

func (r *restyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	restyReq := r.restyClient.R().
		SetContext(req.Context()).
		SetDoNotParseResponse(true)

	for key, values := range req.Header {
		for _, value := range values {
			restyReq.Header.Add(key, value)
		}
	}
	if req.Body != nil {
		restyReq.SetBody(req.Body)
	}

	resp, err := restyReq.Execute(req.Method, req.URL.String())
	if err != nil {
		return nil, err
	}

	return &http.Response{
		Status:     resp.Status(),
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.RawBody(),
		Request:    req,
	}, nil
}
