//go:build !lambda

package main

import (
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"

	"github.com/rsned/cultivation-server/internal/logging"
)

// Without the lambda build tag the handler is served over plain HTTP so the
// function can be exercised locally.
func main() {
	addr := flag.String("addr", ":9000", "Listen address")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	flag.Parse()

	logging.Init(logging.Level(*verbose), logging.FormatText)
	logger := logging.New("lambda-local")

	logger.Info("serving function locally", "addr", *addr)
	if err := http.ListenAndServe(*addr, http.HandlerFunc(serveLocal)); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func serveLocal(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}

	var event events.LambdaFunctionURLRequest
	event.RequestContext.HTTP.Method = r.Method
	event.RawPath = r.URL.Path
	event.Body = string(body)

	resp, err := handler(r.Context(), event)
	if err != nil {
		slog.Error("handler failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.WriteString(w, resp.Body)
}
