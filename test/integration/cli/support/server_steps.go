package support

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/pocode/internal/server"
	"github.com/cucumber/godog"
	"github.com/gorilla/websocket"
)

// HTTPTestServerWrapper runs the real handler on an httptest listener.
type HTTPTestServerWrapper struct {
	Server     *httptest.Server
	TestServer *server.Server
}

// Close shuts the listener down.
func (w *HTTPTestServerWrapper) Close() { w.Server.Close() }

func (testCtx *TestContext) startServer(cfg server.Config) error {
	if testCtx.HTTPTestServer != nil {
		testCtx.HTTPTestServer.Close()
	}
	s, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	testCtx.HTTPTestServer = &HTTPTestServerWrapper{
		Server:     httptest.NewServer(s.Handler()),
		TestServer: s,
	}
	return nil
}

func (testCtx *TestContext) theCodecServerIsRunning() error {
	return testCtx.startServer(server.Config{CORSOrigin: "*", MaxUploadMB: 1, TimeoutSec: 10, MaxBatchItems: 5})
}

func (testCtx *TestContext) theCodecServerIsRunningWithRateLimit(perMinute string) error {
	n, err := strconv.Atoi(perMinute)
	if err != nil {
		return err
	}
	return testCtx.startServer(server.Config{
		CORSOrigin:  "*",
		MaxUploadMB: 1,
		TimeoutSec:  10,
		RateLimit:   server.RateLimitConfig{Enabled: true, RequestsPerMinute: n},
	})
}

func (testCtx *TestContext) serverURL(path string) (string, error) {
	if testCtx.HTTPTestServer == nil {
		return "", errors.New("server is not running")
	}
	return testCtx.HTTPTestServer.Server.URL + path, nil
}

func (testCtx *TestContext) do(req *http.Request) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	testCtx.LastHTTPStatus = resp.StatusCode
	testCtx.LastHTTPBody = body
	testCtx.LastHTTPHeaders = resp.Header
	return nil
}

func (testCtx *TestContext) request(method, path, contentType string, body io.Reader) error {
	url, err := testCtx.serverURL(path)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(method, url, body) //nolint:noctx // client timeout bounds the request
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return testCtx.do(req)
}

func (testCtx *TestContext) iGET(path string) error {
	return testCtx.request(http.MethodGet, path, "", nil)
}

func (testCtx *TestContext) iPOSTJSONTo(path string, body *godog.DocString) error {
	return testCtx.request(http.MethodPost, path, "application/json", strings.NewReader(body.Content))
}

func (testCtx *TestContext) iUploadTo(filename, path string) error {
	data, err := os.ReadFile(testCtx.path(filename))
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filepath.Base(filename))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return testCtx.request(http.MethodPost, path, mw.FormDataContentType(), &buf)
}

// iPOSTTheReturnedMatrixTo sends the matrix of the last encode response
// back for decoding.
func (testCtx *TestContext) iPOSTTheReturnedMatrixTo(path string) error {
	var encoded struct {
		Format string   `json:"format"`
		Matrix []string `json:"matrix"`
	}
	if err := json.Unmarshal(testCtx.LastHTTPBody, &encoded); err != nil {
		return fmt.Errorf("last response has no matrix: %w", err)
	}
	body, err := json.Marshal(server.DecodeRequest{Format: encoded.Format, Matrix: encoded.Matrix})
	if err != nil {
		return err
	}
	return testCtx.request(http.MethodPost, path, "application/json", bytes.NewReader(body))
}

func (testCtx *TestContext) iSendRequestsTo(count, path string) error {
	n, err := strconv.Atoi(count)
	if err != nil {
		return err
	}
	for range n {
		if err := testCtx.iGETOrPOST(path); err != nil {
			return err
		}
	}
	return nil
}

func (testCtx *TestContext) iGETOrPOST(path string) error {
	return testCtx.request(http.MethodPost, path, "application/json", strings.NewReader(`{"format":"aztec","text":"limit"}`))
}

func (testCtx *TestContext) theResponseStatusShouldBe(status string) error {
	want, err := strconv.Atoi(status)
	if err != nil {
		return err
	}
	if testCtx.LastHTTPStatus != want {
		return fmt.Errorf("status is %d, want %d\nBody: %s", testCtx.LastHTTPStatus, want, testCtx.LastHTTPBody)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(string(testCtx.LastHTTPBody), text) {
		return fmt.Errorf("response does not contain '%s'\nBody: %s", text, testCtx.LastHTTPBody)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, value string) error {
	if got := testCtx.LastHTTPHeaders.Get(name); got != value {
		return fmt.Errorf("header %s is %q, want %q", name, got, value)
	}
	return nil
}

func (testCtx *TestContext) theResponseJSONFieldShouldBe(field, expected string) error {
	var data any
	if err := json.Unmarshal(testCtx.LastHTTPBody, &data); err != nil {
		return fmt.Errorf("response is not valid JSON: %w\nBody: %s", err, testCtx.LastHTTPBody)
	}
	return fieldEquals(data, field, expected)
}

// iSendAWebSocketEncodeRequestFor opens /ws, sends one encode frame and
// keeps the response.
func (testCtx *TestContext) iSendAWebSocketEncodeRequestFor(format, text string) error {
	url, err := testCtx.serverURL("/ws")
	if err != nil {
		return err
	}
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer func() { _ = conn.Close() }()

	req := server.WebSocketRequest{
		Type:      "encode",
		RequestID: "feature",
		Encode:    &server.EncodeRequest{Format: format, Text: text},
	}
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("websocket write failed: %w", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var out map[string]any
	if err := conn.ReadJSON(&out); err != nil {
		return fmt.Errorf("websocket read failed: %w", err)
	}
	testCtx.LastWSResponse = out
	return nil
}

func (testCtx *TestContext) theWebSocketResponseFieldShouldBe(field, expected string) error {
	if testCtx.LastWSResponse == nil {
		return errors.New("no websocket response received")
	}
	return fieldEquals(testCtx.LastWSResponse, field, expected)
}

// RegisterServerSteps registers HTTP and WebSocket steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the codec server is running$`, testCtx.theCodecServerIsRunning)
	sc.Step(`^the codec server is running with a limit of (\d+) requests per minute$`,
		testCtx.theCodecServerIsRunningWithRateLimit)

	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGET)
	sc.Step(`^I POST JSON to "([^"]*)":$`, testCtx.iPOSTJSONTo)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)"$`, testCtx.iUploadTo)
	sc.Step(`^I POST the returned matrix to "([^"]*)"$`, testCtx.iPOSTTheReturnedMatrixTo)
	sc.Step(`^I send (\d+) encode requests to "([^"]*)"$`, testCtx.iSendRequestsTo)
	sc.Step(`^I send a websocket encode request for (aztec|datamatrix) "([^"]*)"$`, testCtx.iSendAWebSocketEncodeRequestFor)

	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseJSONFieldShouldBe)
	sc.Step(`^the websocket response field "([^"]*)" should be "([^"]*)"$`, testCtx.theWebSocketResponseFieldShouldBe)
}
