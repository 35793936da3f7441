// Command healthcheck probes the service's /health endpoint and exits
// non-zero when the service is down. With -require-backend it also fails
// when the service is up but reports the vector store unreachable. Intended
// for start scripts and container health checks.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/valyala/fasthttp"
)

func main() {
	url := flag.String("url", "http://127.0.0.1:8000/health", "health endpoint to probe")
	timeout := flag.Duration("timeout", 3*time.Second, "request timeout")
	requireBackend := flag.Bool("require-backend", false, "fail unless the vector store is reachable")
	flag.Parse()

	status, body, err := fasthttp.GetTimeout(nil, *url, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck: %v\n", err)
		os.Exit(1)
	}
	if status != fasthttp.StatusOK {
		fmt.Fprintf(os.Stderr, "healthcheck: unexpected status %d\n", status)
		os.Exit(1)
	}

	var h struct {
		Status          string `json:"status"`
		QdrantConnected bool   `json:"qdrant_connected"`
		Error           string `json:"error"`
	}
	if err := json.Unmarshal(body, &h); err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck: bad response body: %v\n", err)
		os.Exit(1)
	}
	if *requireBackend && !h.QdrantConnected {
		fmt.Fprintf(os.Stderr, "healthcheck: backend unreachable: %s\n", h.Error)
		os.Exit(1)
	}
	fmt.Printf("ok: status=%s qdrant_connected=%v\n", h.Status, h.QdrantConnected)
}
