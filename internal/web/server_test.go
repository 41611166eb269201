package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/screencast-studio/internal/config"
	"github.com/p-blackswan/screencast-studio/internal/generate"
	"github.com/p-blackswan/screencast-studio/internal/health"
	"github.com/p-blackswan/screencast-studio/internal/llm"
	"github.com/p-blackswan/screencast-studio/internal/metrics"
	"github.com/p-blackswan/screencast-studio/internal/project"
	"github.com/p-blackswan/screencast-studio/internal/quality"
	"github.com/p-blackswan/screencast-studio/internal/session"
	"github.com/p-blackswan/screencast-studio/internal/tts"
)

const fence = "```"

// demoScript is a complete, well-formed script: every section present,
// visual cues, pauses, one code demo and a full IVQ.
func demoScript() string {
	return strings.Join([]string{
		"# Lesson 4: Profiling Pandas Pipelines",
		"",
		"## HOOK",
		"",
		"**[SCREEN: Terminal with a stalled progress bar]**",
		"",
		"Your pipeline is slow today. Yesterday it finished in seconds.",
		"",
		"**[PAUSE]**",
		"",
		"## OBJECTIVE",
		"",
		"**[SCREEN: Objective slide]**",
		"",
		"By the end of this video, you will profile a pandas pipeline and name its slowest stage.",
		"",
		"## CONTENT",
		"",
		"**[SCREEN: Jupyter notebook]**",
		"",
		"First we load the sales data and check its shape.",
		"",
		fence + "python",
		"import pandas as pd",
		"df = pd.read_csv('sales.csv')",
		"df.shape",
		fence,
		"",
		"**OUTPUT:** (48231, 12)",
		"",
		"[PAUSE]",
		"",
		"Forty eight thousand rows. Now we time each stage with a profiler and read the report top to bottom.",
		"",
		"## IVQ",
		"",
		"**Question:** Which stage should you optimize first?",
		"",
		"A) The one easiest to rewrite",
		"B) The one highest in the profile report",
		"C) The one with the most lines",
		"D) The one you wrote last",
		"",
		"**Correct Answer:** B",
		"",
		"**Feedback A:** Easy rewrites rarely move total runtime.",
		"**Feedback B:** Right, the profile ranks stages by cost.",
		"**Feedback C:** Line count says nothing about runtime.",
		"**Feedback D:** Age is not a performance signal.",
		"",
		"## SUMMARY",
		"",
		"**[SCREEN: Summary slide]**",
		"",
		"We profiled the pipeline, read the report, and fixed the slowest stage first.",
		"",
		"## CTA",
		"",
		"Profile your own slowest notebook this week.",
		"",
	}, "\n")
}

// brokenScript is missing most sections, has no visual cues and no IVQ.
func brokenScript() string {
	return "## HOOK\n\nService OOMKilled again. Let's fix the memory leak.\n"
}

// fakeLLM returns a canned reply for every call.
type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Generate(_ context.Context, _, _ string, _ ...llm.Option) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Chat(_ context.Context, state llm.ConversationState, message string, _ ...llm.Option) (string, llm.ConversationState, error) {
	if f.err != nil {
		return "", state, f.err
	}
	return f.reply, state.With(llm.RoleUser, message).With(llm.RoleAssistant, f.reply), nil
}

// newStudioApp builds the full server against temp storage. client and
// m may be nil: scoring then runs rule-based and /metrics serves a
// placeholder.
func newStudioApp(t *testing.T, authMode, apiKey string, client llm.Client, m *metrics.Metrics) *fiber.App {
	t.Helper()
	logger := zerolog.Nop()

	cfg := &config.Config{
		Environment:      "test",
		HTTPAddr:         ":0",
		AuthMode:         authMode,
		APIKey:           apiKey,
		JWTSecret:        "test-jwt-secret",
		RequestTimeout:   5 * time.Second,
		ProjectsDir:      t.TempDir(),
		SessionTTL:       time.Hour,
		LLMProvider:      "anthropic",
		LLMTimeout:       5 * time.Second,
		FixTargetScore:   95,
		FixMaxIterations: 5,
	}

	projects, err := project.NewStore(cfg.ProjectsDir, logger)
	require.NoError(t, err)

	sessions := session.NewStore(cfg.SessionTTL, logger)
	t.Cleanup(func() { _ = sessions.Close() })

	checker := health.NewChecker(logger)
	checker.Register("project_store", health.DirWritable(cfg.ProjectsDir))
	checker.Register("session_store", health.Ping(sessions.Ping))
	checker.Register("llm", health.Configured(client != nil))

	h := NewHandlers(cfg,
		projects, sessions,
		quality.NewScorer(client, logger),
		tts.NewOptimizer(client, logger),
		generate.NewGenerator(client, logger),
		client, checker, m, logger)

	return NewServer(cfg, h, m, logger).App()
}

// testApp is the common case: no auth, no model, no metrics.
func testApp(t *testing.T, authMode, apiKey string) *fiber.App {
	t.Helper()
	return newStudioApp(t, authMode, apiKey, nil, nil)
}

// doJSON runs one request against the app and fails the test on
// transport errors. An empty body sends no Content-Type.
func doJSON(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// createProject makes a project through the API and returns it.
func createProject(t *testing.T, app *fiber.App, body string) project.Project {
	t.Helper()
	if body == "" {
		body = "{}"
	}
	resp := doJSON(t, app, "POST", "/api/v1/projects", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p project.Project
	decodeBody(t, resp, &p)
	return p
}

// importScript stores and parses a script on the project.
func importScript(t *testing.T, app *fiber.App, projectID, text string) {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"script_text": text})
	require.NoError(t, err)
	resp := doJSON(t, app, "POST", "/api/v1/projects/"+projectID+"/import-script", string(payload))
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_HealthzEndpoint(t *testing.T) {
	app := testApp(t, "none", "")

	resp := doJSON(t, app, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestServer_ReadyzEndpoint(t *testing.T) {
	app := testApp(t, "none", "")

	resp := doJSON(t, app, "GET", "/readyz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "ready", body["status"])
}

func TestServer_MetricsPlaceholder(t *testing.T) {
	app := testApp(t, "none", "")

	resp := doJSON(t, app, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "No metrics collector configured")
}

func TestServer_MetricsEndpoint(t *testing.T) {
	m := metrics.New()
	app := newStudioApp(t, "none", "", nil, m)

	// One API request so the HTTP counters have a child to report.
	resp := doJSON(t, app, "GET", "/api/v1/projects", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "studio_http_requests_total")
	assert.Contains(t, string(raw), "/api/v1/projects")
}

func TestServer_HealthDetail(t *testing.T) {
	app := testApp(t, "none", "")

	resp := doJSON(t, app, "GET", "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status        string                   `json:"status"`
		Checks        map[string]health.Status `json:"checks"`
		UptimeSeconds int                      `json:"uptime_seconds"`
		LLMEnabled    bool                     `json:"llm_enabled"`
	}
	decodeBody(t, resp, &body)

	// No model configured: the llm check degrades but nothing is down.
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, health.StatusOK, body.Checks["project_store"])
	assert.Equal(t, health.StatusOK, body.Checks["session_store"])
	assert.Equal(t, health.StatusDegraded, body.Checks["llm"])
	assert.False(t, body.LLMEnabled)
}

func TestServer_UnknownRouteIsProblem(t *testing.T) {
	app := testApp(t, "none", "")

	resp := doJSON(t, app, "GET", "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var problem ProblemDetail
	decodeBody(t, resp, &problem)
	assert.Equal(t, http.StatusNotFound, problem.Status)
	assert.Equal(t, "/api/v1/nope", problem.Instance)
}
