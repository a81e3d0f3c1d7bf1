package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mangashelf/internal/library"
	"github.com/mrlokans/mangashelf/internal/settingsstore"
	"github.com/mrlokans/mangashelf/internal/utils"
)

type fakeSettings struct {
	config settingsstore.LibraryUpdateConfig
}

func (f *fakeSettings) GetLibraryUpdateConfig(ctx context.Context) settingsstore.LibraryUpdateConfig {
	return f.config
}

type fakeRunner struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRunner) Run(ctx context.Context) (library.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return library.Report{}, nil
}

func (f *fakeRunner) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeQueue struct {
	triggers []string
}

func (f *fakeQueue) EnqueueLibraryUpdate(trigger string) (string, error) {
	f.triggers = append(f.triggers, trigger)
	return "task-1", nil
}

func (f *fakeQueue) EnqueueAuditCleanup(retentionDays int) (string, error) {
	return "task-2", nil
}

func TestLibraryUpdateScheduler_Disabled(t *testing.T) {
	settings := &fakeSettings{config: settingsstore.LibraryUpdateConfig{Enabled: false, Schedule: "0 */12 * * *"}}
	s := NewLibraryUpdateScheduler(settings, &fakeRunner{}, utils.NewTestLogger())

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
}

func TestLibraryUpdateScheduler_StartStop(t *testing.T) {
	settings := &fakeSettings{config: settingsstore.LibraryUpdateConfig{Enabled: true, Schedule: "0 */12 * * *"}}
	s := NewLibraryUpdateScheduler(settings, &fakeRunner{}, utils.NewTestLogger())
	s.SetQueue(&fakeQueue{})
	s.SetAuditRetention(30)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	next := s.GetNextRunTime()
	require.NotNil(t, next)
	assert.True(t, next.After(time.Now()))

	s.Stop()
	assert.False(t, s.IsRunning())

	settings.config.Enabled = false
	require.NoError(t, s.Reschedule(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestLibraryUpdateScheduler_StopsWithContext(t *testing.T) {
	settings := &fakeSettings{config: settingsstore.LibraryUpdateConfig{Enabled: true, Schedule: "0 */12 * * *"}}
	s := NewLibraryUpdateScheduler(settings, &fakeRunner{}, utils.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestLibraryUpdateScheduler_InvalidSchedule(t *testing.T) {
	settings := &fakeSettings{config: settingsstore.LibraryUpdateConfig{Enabled: true, Schedule: "every day"}}
	s := NewLibraryUpdateScheduler(settings, &fakeRunner{}, utils.NewTestLogger())

	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestLibraryUpdateScheduler_RunNow(t *testing.T) {
	settings := &fakeSettings{}

	queue := &fakeQueue{}
	queued := NewLibraryUpdateScheduler(settings, &fakeRunner{}, utils.NewTestLogger())
	queued.SetQueue(queue)
	id, err := queued.RunNow()
	require.NoError(t, err)
	assert.Equal(t, "task-1", id)
	assert.Equal(t, []string{"manual"}, queue.triggers)

	runner := &fakeRunner{}
	inline := NewLibraryUpdateScheduler(settings, runner, utils.NewTestLogger())
	id, err = inline.RunNow()
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Eventually(t, func() bool { return runner.Calls() == 1 }, 2*time.Second, 10*time.Millisecond)
}
