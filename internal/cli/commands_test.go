package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdbip/agiler-write-model/internal/domain"
	"github.com/sdbip/agiler-write-model/internal/store"
)

func TestPublishAndHistory_Text(t *testing.T) {
	useTempDatabase(t)

	out, _, err := execute(t, "publish", "--id", "task-1", "--type", "Task", "--name", "Created",
		"--details", `{"title":"Write tests","type":"Task"}`, "--actor", "ops")
	require.NoError(t, err)
	assert.Equal(t, "published Created to Task task-1\n", out)

	_, _, err = execute(t, "publish", "--id", "task-1", "--type", "Task", "--name", "ProgressChanged",
		"--details", `{"progress":"completed"}`, "--actor", "ops")
	require.NoError(t, err)

	out, _, err = execute(t, "history", "task-1")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "history_text", []byte(out))
}

func TestHistory_JSON(t *testing.T) {
	useTempDatabase(t)
	_, _, err := execute(t, "publish", "--id", "f-1", "--type", "Feature", "--name", "Created",
		"--details", `{"title":"Checkout","type":"Feature"}`, "--actor", "ops")
	require.NoError(t, err)

	out, _, err := execute(t, "--format", "json", "history", "--type", "Feature", "f-1")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			ID      string `json:"id"`
			Type    string `json:"type"`
			Version int    `json:"version"`
			Events  []struct {
				Name    string         `json:"name"`
				Details map[string]any `json:"details"`
			} `json:"events"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "f-1", resp.Data.ID)
	assert.Equal(t, "Feature", resp.Data.Type)
	assert.Equal(t, 0, resp.Data.Version)
	require.Len(t, resp.Data.Events, 1)
	assert.Equal(t, "Checkout", resp.Data.Events[0].Details["title"])
}

func TestHistory_NotFound(t *testing.T) {
	useTempDatabase(t)

	out, _, err := execute(t, "--format", "json", "history", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
}

func TestHistory_TypeMismatch(t *testing.T) {
	useTempDatabase(t)
	_, _, err := execute(t, "publish", "--id", "x", "--type", "Item", "--name", "Created", "--actor", "ops")
	require.NoError(t, err)

	out, _, err := execute(t, "--format", "json", "history", "--type", "Task", "x")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, CodeTypeChange, resp.Error.Code)
}

func TestPublish_MissingFlags(t *testing.T) {
	useTempDatabase(t)
	_, _, err := execute(t, "publish", "--id", "x", "--type", "Item")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestPublish_InvalidDetails(t *testing.T) {
	useTempDatabase(t)
	for _, details := range []string{`[1,2]`, `null`, `{"a":1} {"b":2}`, `{`} {
		t.Run(details, func(t *testing.T) {
			_, _, err := execute(t, "publish", "--id", "x", "--type", "Item", "--name", "Created",
				"--details", details, "--actor", "ops")
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestRebuild(t *testing.T) {
	path := useTempDatabase(t)

	s, err := store.OpenSQLite(path)
	require.NoError(t, err)
	story, err := domain.NewItem("story", "Pay by card", domain.TypeStory)
	require.NoError(t, err)
	task, err := domain.NewItem("task", "Card form", "")
	require.NoError(t, err)
	require.NoError(t, story.Add(task))
	require.NoError(t, s.PublishChanges(context.Background(), "ops", story, task))
	require.NoError(t, s.Close())

	out, _, err := execute(t, "rebuild", "--page-size", "1")
	require.NoError(t, err)
	assert.Equal(t, "projection rebuilt from 4 events\n", out)
}

func TestServe(t *testing.T) {
	useTempDatabase(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan string, 1)
	cmd := newServeCommand(&ServeOptions{
		RootOptions: &RootOptions{Format: "text"},
		IDs:         domain.NewFixedGenerator("item-1"),
		Ready:       func(addr string) { ready <- addr },
	})
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--addr", "127.0.0.1:0"})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, "http://"+addr+"/item", strings.NewReader(`{"title":"Ship it"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "alice")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get("http://" + addr + "/entity/item-1")
	require.NoError(t, err)
	var history struct {
		Type    string `json:"type"`
		Version int    `json:"version"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	resp.Body.Close()
	assert.Equal(t, "Item", history.Type)
	assert.Equal(t, 0, history.Version)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Contains(t, out.String(), "Listening on "+addr)
}
