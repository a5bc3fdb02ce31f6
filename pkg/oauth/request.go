package oauth

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// HTTPClient sends outbound requests. *http.Client satisfies it; tests and
// callers may inject their own transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response is a provider response with its body already decoded.
// Body is map[string]any or []any for JSON (numbers as json.Number),
// map[string]any for form-encoded bodies, and string for anything else.
type Response struct {
	Headers http.Header
	Body    any
	Status  int
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Object returns the body as a JSON object.
func (r *Response) Object() (map[string]any, bool) {
	m, ok := r.Body.(map[string]any)
	return m, ok
}

// Request sends an HTTP request through client and decodes the response body
// by content type. Transport failures are reported as RequestError with kind
// ErrorUnreachable. Non-2xx statuses are not treated as errors here.
func Request(ctx context.Context, client HTTPClient, method, rawURL string, body io.Reader, headers http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, &RequestError{Kind: ErrorUnreachable, Message: "build request", Err: err}
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &RequestError{Kind: ErrorUnreachable, Message: method + " " + redactQuery(rawURL), Err: err}
	}
	if resp == nil {
		return nil, &RequestError{Kind: ErrorUnreachable, Message: "nil response from " + redactQuery(rawURL)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Kind: ErrorUnreachable, Message: "read body", Err: err}
	}

	return DecodeResponse(&Response{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Body:    string(raw),
	})
}

// DecodeResponse replaces a string body with its decoded value according to
// the content-type header. JSON and form-encoded bodies are parsed; any other
// content type is passed through untouched. Charset parameters are ignored.
func DecodeResponse(resp *Response) (*Response, error) {
	raw, ok := resp.Body.(string)
	if !ok {
		return resp, nil
	}

	contentType := resp.Headers.Get("Content-Type")
	mediaType := contentType
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = mt
	}

	switch {
	case strings.Contains(mediaType, "json"):
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, &DecodeError{ContentType: mediaType, Err: err}
		}
		resp.Body = v
	case strings.Contains(mediaType, "x-www-form-urlencoded"):
		values, err := url.ParseQuery(raw)
		if err != nil {
			return nil, &DecodeError{ContentType: mediaType, Err: err}
		}
		resp.Body = flattenValues(values)
	}

	return resp, nil
}

func flattenValues(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, vs := range values {
		switch len(vs) {
		case 0:
		case 1:
			out[k] = vs[0]
		default:
			out[k] = vs
		}
	}
	return out
}

// redactQuery drops the query string so tokens passed as parameters never end up in errors.
func redactQuery(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	return u.String()
}
