package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/just-ask-ai/justask/internal/core/domain"
)

// ==================== Mocks ====================

type mockQueryService struct {
	answer   *domain.Answer
	err      error
	received domain.QueryRequest
}

func (m *mockQueryService) Ask(_ context.Context, req domain.QueryRequest) (*domain.Answer, error) {
	m.received = req
	if m.err != nil {
		return nil, m.err
	}
	if m.answer != nil {
		return m.answer, nil
	}
	return &domain.Answer{Question: req.Question, Response: "no answer", Intent: domain.IntentSemantic}, nil
}

func (m *mockQueryService) LastExchange() (domain.Exchange, bool) {
	return domain.Exchange{}, false
}

type mockIndexService struct {
	report   *domain.SyncReport
	err      error
	status   domain.SyncStatus
	received domain.SyncOptions
	calls    int
}

func (m *mockIndexService) Sync(_ context.Context, opts domain.SyncOptions) (*domain.SyncReport, error) {
	m.calls++
	m.received = opts
	if m.report == nil {
		return &domain.SyncReport{}, m.err
	}
	return m.report, m.err
}

func (m *mockIndexService) Status() domain.SyncStatus {
	return m.status
}

type mockImportService struct {
	inserted  int
	err       error
	lastLimit int
}

func (m *mockImportService) Import(_ context.Context, limit int) (int, error) {
	m.lastLimit = limit
	return m.inserted, m.err
}

type mockStatsService struct {
	stats *domain.IndexStats
	err   error
}

func (m *mockStatsService) Stats(_ context.Context) (*domain.IndexStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

func (m *mockStatsService) Schema(_ context.Context) ([]domain.Column, error) {
	return nil, nil
}

type mockSettingsService struct {
	settings    domain.AppSettings
	values      map[string]string
	setErr      error
	validateErr error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: domain.DefaultAppSettings(),
		values:   make(map[string]string),
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"llm.api_key", "router.classifier", "sync.page_size"}
}

func (m *mockSettingsService) Validate() error {
	return m.validateErr
}

type mockScheduler struct {
	mu      sync.Mutex
	started bool
	stopped bool
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	return nil
}

func (m *mockScheduler) wasStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

type mockWatcher struct {
	startErr error
	started  bool
	closed   bool
}

func (m *mockWatcher) Start(_ context.Context) error {
	m.started = true
	return m.startErr
}

func (m *mockWatcher) Close() error {
	m.closed = true
	return nil
}

// ==================== Helpers ====================

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	query     *mockQueryService
	index     *mockIndexService
	importer  *mockImportService
	stats     *mockStatsService
	settings  *mockSettingsService
	scheduler *mockScheduler
	watcher   *mockWatcher
	services  *Services
}

// setupTestServices installs mock services and returns a cleanup function.
func setupTestServices() (*testServices, func()) {
	oldServices, oldBuilder, oldNoColor := services, builder, color.NoColor
	color.NoColor = true

	ts := &testServices{
		query:     &mockQueryService{},
		index:     &mockIndexService{},
		importer:  &mockImportService{},
		stats:     &mockStatsService{stats: &domain.IndexStats{Table: "sales"}},
		settings:  newMockSettingsService(),
		scheduler: &mockScheduler{},
		watcher:   &mockWatcher{},
	}
	ts.services = &Services{
		Query:           ts.query,
		Index:           ts.index,
		Import:          ts.importer,
		Stats:           ts.stats,
		Settings:        ts.settings,
		Scheduler:       ts.scheduler,
		SchedulerConfig: domain.DefaultSchedulerConfig(),
		Watcher:         ts.watcher,
	}
	SetServices(ts.services)
	builder = nil

	return ts, func() {
		services, builder, color.NoColor = oldServices, oldBuilder, oldNoColor
	}
}

// runCommand executes the root command with args and returns its combined
// output. Flags are reset first because cobra keeps their values between runs.
func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return runCommandContext(t, context.Background(), stdin, args...)
}

func runCommandContext(t *testing.T, ctx context.Context, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	setContext(rootCmd, ctx)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

// setContext replaces contexts cobra cached on earlier runs.
func setContext(cmd *cobra.Command, ctx context.Context) {
	cmd.SetContext(ctx)
	for _, child := range cmd.Commands() {
		setContext(child, ctx)
	}
}

var errBoom = errors.New("boom")
