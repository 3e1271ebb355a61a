// Command cultivation-lambda runs the calculator behind an AWS Lambda
// Function URL. It uses the embedded preset catalogue only; saved schemes
// and the current selection need the database and are not available.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/rsned/cultivation-server/internal/cultivation/engine"
	"github.com/rsned/cultivation-server/internal/cultivation/presets"
	"github.com/rsned/cultivation-server/internal/logging"
	"github.com/rsned/cultivation-server/pkg/cultivation"
)

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

func handler(_ context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	logger := logging.New("lambda")

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

	var req cultivation.CalculateRequest
	if strings.TrimSpace(body) != "" {
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			return errResp(http.StatusBadRequest, "invalid JSON: "+err.Error())
		}
	}
	if req.SchemeID != "" {
		return errResp(http.StatusBadRequest, "saved schemes are not available here; send params instead")
	}

	id := req.PresetID
	if id == "" {
		id = cultivation.DefaultPresetID
	}
	preset, err := presets.Lookup(id)
	if err != nil {
		logger.Error("loading presets", "error", err)
		return errResp(http.StatusInternalServerError, "internal error")
	}
	if preset == nil {
		return errResp(http.StatusNotFound, "preset "+id+" not found")
	}

	resp := engine.Evaluate(engine.Layer(preset.Params, preset.Resource, req))
	status := http.StatusOK
	if len(resp.Errors) > 0 {
		status = http.StatusUnprocessableEntity
	}
	logger.Info("calculated", "preset", id, "status", status)

	respJSON, err := json.Marshal(resp)
	if err != nil {
		return errResp(http.StatusInternalServerError, "encoding response: "+err.Error())
	}
	return events.LambdaFunctionURLResponse{StatusCode: status, Headers: jsonHeader, Body: string(respJSON)}, nil
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}
