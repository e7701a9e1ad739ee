package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/sleepwiki/ingredex"
	"github.com/sleepwiki/ingredex/model"
)

var jsonHeader = map[string]string{
	"Content-Type": "application/json; charset=utf-8",
}

type decodeResponse struct {
	Entities []model.Entity  `json:"entities"`
	Report   ingredex.Report `json:"report"`
	Title    string          `json:"title,omitempty"`
}

// handler decodes the HTML page posted as the request body.
//
// Query parameters: locator selects a registered table locator, and
// fallback=false turns structural failures into 422 responses.
func handler(_ context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	if m := event.RequestContext.HTTP.Method; m != "" && m != http.MethodPost {
		return errResp(http.StatusMethodNotAllowed, "use POST")
	}

	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errResp(http.StatusBadRequest, "invalid base64 body")
		}
		body = string(decoded)
	}
	if strings.TrimSpace(body) == "" {
		return errResp(http.StatusBadRequest, "empty body")
	}

	dec := ingredex.FromString(body).Logger(slog.Default())
	if name := event.QueryStringParameters["locator"]; name != "" {
		dec = dec.LocatorByName(name)
	}
	if raw := event.QueryStringParameters["fallback"]; raw != "" {
		useFallback, err := strconv.ParseBool(raw)
		if err != nil {
			return errResp(http.StatusBadRequest, "fallback must be true or false")
		}
		if !useFallback {
			dec = dec.WithoutFallback()
		}
	}

	res, err := dec.Decode()
	switch {
	case errors.Is(err, ingredex.ErrNoTable), errors.Is(err, ingredex.ErrNoDataRows), errors.Is(err, ingredex.ErrNoEntities):
		return errResp(http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		return errResp(http.StatusBadRequest, err.Error())
	}

	entities := res.Entities
	if entities == nil {
		entities = []model.Entity{}
	}
	respJSON, err := json.Marshal(decodeResponse{Entities: entities, Report: res.Report, Title: res.Title})
	if err != nil {
		return errResp(http.StatusInternalServerError, "encoding response")
	}
	return events.LambdaFunctionURLResponse{StatusCode: http.StatusOK, Headers: jsonHeader, Body: string(respJSON)}, nil
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}
