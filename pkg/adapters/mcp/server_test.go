package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/capsid/pkg/domain"
)

type mockEngine struct {
	runID      string
	runErr     error
	actionID   string
	actionErr  error
	poll       domain.PollResponse
	status     domain.RunStatus
	message    string
	busy       bool
	history    []domain.HistoryRecord
	lastParams map[string]any
	lastAction string
	lastOffset int
	terminated int
}

func (m *mockEngine) RequestRun(params map[string]any) (string, error) {
	m.lastParams = params
	if m.runErr != nil {
		return "", m.runErr
	}
	return m.runID, nil
}

func (m *mockEngine) RequestAction(name string) (string, error) {
	m.lastAction = name
	if m.actionErr != nil {
		return "", m.actionErr
	}
	return m.actionID, nil
}

func (m *mockEngine) RequestTerminate() {
	m.terminated++
	m.status = domain.StatusAborted
	m.message = "Terminated by user"
}

func (m *mockEngine) Poll(offset int) domain.PollResponse {
	m.lastOffset = offset
	return m.poll
}

func (m *mockEngine) Status() (domain.RunStatus, string) {
	return m.status, m.message
}

func (m *mockEngine) Busy() bool {
	return m.busy
}

func (m *mockEngine) History(ctx context.Context) ([]domain.HistoryRecord, error) {
	return m.history, nil
}

func TestHandleStartRun(t *testing.T) {
	t.Run("Accepted", func(t *testing.T) {
		eng := &mockEngine{runID: "task-1"}
		srv := NewServer(eng)

		args := map[string]interface{}{"params": `{"short_r1": "a.fastq.gz"}`}
		resp, err := srv.handleStartRun(context.Background(), mcp.CallToolRequest{}, args)
		require.NoError(t, err)
		assert.Equal(t, "task-1", resp.ID)
		assert.Equal(t, domain.StatusRunning, resp.Status)
		assert.Equal(t, "a.fastq.gz", eng.lastParams["short_r1"])
	})

	t.Run("Defaults To Empty Params", func(t *testing.T) {
		eng := &mockEngine{runID: "task-1"}
		srv := NewServer(eng)

		_, err := srv.handleStartRun(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{})
		require.NoError(t, err)
		require.NotNil(t, eng.lastParams)
		assert.Empty(t, eng.lastParams)
	})

	t.Run("Invalid Params JSON", func(t *testing.T) {
		srv := NewServer(&mockEngine{runID: "task-1"})

		args := map[string]interface{}{"params": `{"short_r1"`}
		_, err := srv.handleStartRun(context.Background(), mcp.CallToolRequest{}, args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid params JSON")
	})

	t.Run("Busy", func(t *testing.T) {
		srv := NewServer(&mockEngine{runErr: domain.ErrBusy})

		_, err := srv.handleStartRun(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{})
		require.ErrorIs(t, err, domain.ErrBusy)
	})
}

func TestHandlePollLogs(t *testing.T) {
	eng := &mockEngine{poll: domain.PollResponse{Content: "hello", NewOffset: 5, Status: domain.StatusRunning}}
	srv := NewServer(eng)

	t.Run("With Offset", func(t *testing.T) {
		args := map[string]interface{}{"offset": "42"}
		resp, err := srv.handlePollLogs(context.Background(), mcp.CallToolRequest{}, args)
		require.NoError(t, err)
		assert.Equal(t, 42, eng.lastOffset)
		assert.Equal(t, "hello", resp.Content)
		assert.Equal(t, 5, resp.NewOffset)
		assert.Equal(t, domain.StatusRunning, resp.Status)
	})

	t.Run("Default Offset", func(t *testing.T) {
		eng.lastOffset = -1
		_, err := srv.handlePollLogs(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{})
		require.NoError(t, err)
		assert.Equal(t, 0, eng.lastOffset)
	})

	t.Run("Malformed Offset", func(t *testing.T) {
		args := map[string]interface{}{"offset": "abc"}
		_, err := srv.handlePollLogs(context.Background(), mcp.CallToolRequest{}, args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid offset")
	})

	t.Run("Negative Offset", func(t *testing.T) {
		args := map[string]interface{}{"offset": "-3"}
		_, err := srv.handlePollLogs(context.Background(), mcp.CallToolRequest{}, args)
		require.Error(t, err)
	})
}

func TestHandleRunAction(t *testing.T) {
	t.Run("Accepted", func(t *testing.T) {
		eng := &mockEngine{actionID: "task-2"}
		srv := NewServer(eng)

		args := map[string]interface{}{"name": "install_pharokka_db"}
		resp, err := srv.handleRunAction(context.Background(), mcp.CallToolRequest{}, args)
		require.NoError(t, err)
		assert.Equal(t, "task-2", resp.ID)
		assert.Equal(t, "install_pharokka_db", eng.lastAction)
	})

	t.Run("Unknown Action", func(t *testing.T) {
		srv := NewServer(&mockEngine{actionErr: domain.ErrUnknownAction})

		args := map[string]interface{}{"name": "defrag_disk"}
		_, err := srv.handleRunAction(context.Background(), mcp.CallToolRequest{}, args)
		require.ErrorIs(t, err, domain.ErrUnknownAction)
	})
}

func TestHandleTerminate(t *testing.T) {
	eng := &mockEngine{status: domain.StatusRunning, busy: true}
	srv := NewServer(eng)

	resp, err := srv.handleTerminate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, 1, eng.terminated)
	assert.Equal(t, domain.StatusAborted, resp.Status)
	assert.Equal(t, "Terminated by user", resp.Message)
}

func TestHandleStatus(t *testing.T) {
	eng := &mockEngine{status: domain.StatusFinished, message: "Completed successfully"}
	srv := NewServer(eng)

	resp, err := srv.handleStatus(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, resp.Status)
	assert.Equal(t, "Completed successfully", resp.Message)
	assert.False(t, resp.Busy)
}
