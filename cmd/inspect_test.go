package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/wp-inspector/internal/clock/system"
	"github.com/JakeFAU/wp-inspector/internal/config"
	"github.com/JakeFAU/wp-inspector/internal/fetcher/fake"
	"github.com/JakeFAU/wp-inspector/internal/inspector"
)

type stubApp struct {
	insp     *inspector.Inspector
	served   bool
	closed   bool
	serveErr error
}

func (s *stubApp) Close() {
	s.closed = true
}

func (s *stubApp) GetLogger() *zap.Logger {
	return zap.NewNop()
}

func (s *stubApp) GetConfig() config.Config {
	return config.Config{}
}

func (s *stubApp) GetInspector() *inspector.Inspector {
	return s.insp
}

func (s *stubApp) Serve(context.Context) error {
	s.served = true
	return s.serveErr
}

func withStubApp(t *testing.T, stub *stubApp) {
	t.Helper()
	orig := newApp
	newApp = func(context.Context, string) (App, error) { return stub, nil }
	t.Cleanup(func() { newApp = orig })
}

func newStubInspector(f *fake.Fetcher) *inspector.Inspector {
	clock := system.NewManual(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	return inspector.New(f, nil, clock, inspector.Config{}, zap.NewNop())
}

const contactPage = `<html><head><title>Acme</title>
<link rel="stylesheet" href="https://acme.example/wp-content/themes/astra/style.css?ver=4.6.1">
<link rel="stylesheet" href="https://acme.example/wp-content/plugins/contact-form-7/includes/css/styles.css">
</head><body class="home"></body></html>`

func TestInspectCommandPrintsTable(t *testing.T) {
	f := fake.New().HTML("https://acme.example/", contactPage)
	stub := &stubApp{insp: newStubInspector(f)}
	withStubApp(t, stub)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"inspect", "https://acme.example", "--no-color"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	text := out.String()
	assert.Contains(t, text, "https://acme.example/ is built with WordPress")
	assert.Contains(t, text, "Astra")
	assert.Contains(t, text, "contact-form-7")
	assert.Contains(t, text, "Plugins (1)")
	assert.True(t, stub.closed)
}

func TestInspectCommandJSON(t *testing.T) {
	f := fake.New().HTML("https://acme.example/", contactPage)
	withStubApp(t, &stubApp{insp: newStubInspector(f)})

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"inspect", "https://acme.example", "--json"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), `"isWordPress": true`)
	assert.Contains(t, out.String(), `"scannedAt": "2025-01-02T03:04:05Z"`)
}

func TestInspectCommandInvalidURL(t *testing.T) {
	withStubApp(t, &stubApp{insp: newStubInspector(fake.New())})

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"inspect", "not a url"})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, inspector.ErrInvalidURL)
}

func TestServeCommandRunsApp(t *testing.T) {
	stub := &stubApp{}
	withStubApp(t, stub)

	root := newRootCmd()
	root.SetArgs([]string{"serve"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.True(t, stub.served)
}

func TestServeCommandPropagatesError(t *testing.T) {
	withStubApp(t, &stubApp{serveErr: errors.New("port in use")})

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"serve"})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port in use")
}

func TestResolveAppWithoutApp(t *testing.T) {
	_, err := resolveApp(context.Background())
	require.Error(t, err)
}

func TestRenderReportNotWordPress(t *testing.T) {
	var out bytes.Buffer
	report := inspector.Report{
		URL:     "https://static.example/",
		Message: "This site does not appear to be built with WordPress",
	}
	require.NoError(t, renderReport(&out, report, false))
	assert.Equal(t, "✗ This site does not appear to be built with WordPress\n", out.String())
}

func TestRenderReportWithoutPlugins(t *testing.T) {
	var out bytes.Buffer
	report := inspector.Report{
		URL:         "https://blog.example/",
		IsWordPress: true,
		Theme:       &inspector.ThemeInfo{Name: "Kadence Child", IsChildTheme: true, ParentTheme: "Kadence"},
		Plugins:     &inspector.PluginSummary{List: []inspector.ExtensionRecord{}},
		Customization: &inspector.CustomizationVerdict{
			Score: 40, ConfidencePercent: 70, IsCustom: true, CategoryLabel: "Customized child theme",
		},
	}
	require.NoError(t, renderReport(&out, report, false))
	text := out.String()
	assert.Contains(t, text, "Parent theme")
	assert.Contains(t, text, "Kadence")
	assert.Contains(t, text, "70%")
	assert.Contains(t, text, "No plugins detected")
}
