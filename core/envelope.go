package core

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// EnvelopeKind discriminates the backend's wire envelope shapes.
type EnvelopeKind int

const (
	// KindLegacy is the {retcode, retmsg, data} envelope.
	KindLegacy EnvelopeKind = iota
	// KindModern is the {code, message, data} envelope, remapped onto the
	// legacy fields during normalization.
	KindModern
	// KindRaw is a JSON body carrying neither envelope; the whole body is
	// the payload and business-code checks do not apply.
	KindRaw
	// KindBlob is a non-JSON body returned as-is.
	KindBlob
)

// Envelope is the normalized form of a backend response.
type Envelope struct {
	Kind EnvelopeKind
	// Code and Message carry the business status for Legacy and Modern
	// envelopes; both are zero for Raw and Blob responses.
	Code    int
	Message string
	// Data is the business payload: the envelope's data field, or the
	// whole body for Raw and Blob responses.
	Data json.RawMessage
	// AuthToken is the token issued out-of-band via the Authorization
	// response header on login/register calls.
	AuthToken Secret
	// Status is the HTTP status code.
	Status int
}

// isJSONContent reports whether the content type denotes a JSON body.
func isJSONContent(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// isAuthEndpoint reports whether the resolved URL is a login/register
// call, whose response carries the issued token in the Authorization
// header.
func isAuthEndpoint(resolvedURL string) bool {
	return strings.Contains(resolvedURL, "/user/login") || strings.Contains(resolvedURL, "/user/register")
}

// normalize classifies a raw response into an Envelope or a typed error.
//
// Any 401 clears the token store before surfacing UNAUTHORIZED, whatever
// the body looks like. Non-JSON bodies become Blob on success and
// HTTP_ERROR otherwise. JSON bodies are discriminated by shape: retcode
// means Legacy, code means Modern, neither means Raw (status-only success
// check). Legacy/Modern bodies additionally fail on a non-zero business
// code, carrying data as error details.
func (c *Client) normalize(resp *http.Response, body []byte, authEndpoint bool) (*Envelope, error) {
	ok2xx := resp.StatusCode >= 200 && resp.StatusCode < 300

	if resp.StatusCode == http.StatusUnauthorized {
		_ = c.tokens.Clear()
		return nil, newCatalogError(http.StatusUnauthorized, CodeUnauthorized, ErrUnauthorized)
	}

	if !isJSONContent(resp.Header.Get("Content-Type")) {
		if !ok2xx {
			return nil, &APIError{Status: resp.StatusCode, Code: CodeHTTPError, Message: http.StatusText(resp.StatusCode), Err: ErrHTTP}
		}
		return &Envelope{Kind: KindBlob, Data: body, Status: resp.StatusCode}, nil
	}

	env := &Envelope{Status: resp.StatusCode}
	switch {
	case gjson.GetBytes(body, "retcode").Exists():
		env.Kind = KindLegacy
		env.Code = int(gjson.GetBytes(body, "retcode").Int())
		env.Message = gjson.GetBytes(body, "retmsg").String()
		env.Data = rawField(body, "data")
	case gjson.GetBytes(body, "code").Exists():
		env.Kind = KindModern
		env.Code = int(gjson.GetBytes(body, "code").Int())
		env.Message = gjson.GetBytes(body, "message").String()
		env.Data = rawField(body, "data")
	default:
		env.Kind = KindRaw
		env.Data = body
	}

	if authEndpoint {
		if h := resp.Header.Get("Authorization"); h != "" {
			env.AuthToken = NewSecret(h)
		}
	}

	if env.Kind == KindRaw {
		if !ok2xx {
			return nil, &APIError{Status: resp.StatusCode, Code: CodeHTTPError, Message: http.StatusText(resp.StatusCode), Err: ErrHTTP}
		}
		return env, nil
	}

	if env.Code != 0 {
		return nil, &APIError{
			Status:  resp.StatusCode,
			Code:    strconv.Itoa(env.Code),
			Message: env.Message,
			Details: env.Data,
			Err:     ErrBusiness,
		}
	}
	if !ok2xx {
		return nil, &APIError{Status: resp.StatusCode, Code: CodeHTTPError, Message: http.StatusText(resp.StatusCode), Err: ErrHTTP}
	}
	return env, nil
}

// rawField returns the raw JSON of a top-level field, or nil when absent.
func rawField(body []byte, name string) json.RawMessage {
	res := gjson.GetBytes(body, name)
	if !res.Exists() {
		return nil
	}
	return json.RawMessage(res.Raw)
}
