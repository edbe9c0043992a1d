package intercept

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const contentTypeJSON = "application/json"

// Request is the part of an intercepted browser request responders can see.
type Request struct {
	Method   string
	URL      string
	PostData string
	Headers  map[string]string
}

// MockResponse is a canned HTTP response.
type MockResponse struct {
	Status      int
	ContentType string
	Headers     map[string]string
	Body        []byte
}

func (m MockResponse) withDefaults() MockResponse {
	if m.Status == 0 {
		m.Status = http.StatusOK
	}
	return m
}

// Responder produces the response for one intercepted request.
type Responder interface {
	Respond(Request) (MockResponse, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(Request) (MockResponse, error)

func (f ResponderFunc) Respond(req Request) (MockResponse, error) {
	return f(req)
}

// Static returns resp for every request.
func Static(resp MockResponse) Responder {
	return ResponderFunc(func(Request) (MockResponse, error) {
		return resp, nil
	})
}

// JSON returns a 200 application/json responder with v marshaled once.
func JSON(v any) (Responder, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("intercept: marshal mock body: %w", err)
	}
	return Static(MockResponse{
		Status:      http.StatusOK,
		ContentType: contentTypeJSON,
		Body:        body,
	}), nil
}

// RawJSON returns a 200 application/json responder for a literal body.
func RawJSON(body string) Responder {
	return Static(MockResponse{
		Status:      http.StatusOK,
		ContentType: contentTypeJSON,
		Body:        []byte(body),
	})
}
