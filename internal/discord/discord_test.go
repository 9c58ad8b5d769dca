package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(ClientConfig{AppID: "app", Token: "secret"}, nil, zap.NewNop().Sugar())
	c.baseURL = srv.URL
	return c
}

func TestRegisterCommands(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody []*discordgo.ApplicationCommand

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPut, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_ = json.NewEncoder(w).Encode(gotBody)
	})

	registered, err := c.RegisterCommands(context.Background(), "guild")
	require.NoError(t, err)

	assert.Equal(t, "/applications/app/guilds/guild/commands", gotPath)
	assert.Equal(t, "Bot secret", gotAuth)
	assert.Len(t, gotBody, len(Commands()))
	assert.Len(t, registered, len(Commands()))
}

func TestRegisterCommandsGlobal(t *testing.T) {
	var gotPath string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("[]"))
	})

	_, err := c.RegisterCommands(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "/applications/app/commands", gotPath)
}

func TestRegisterCommandsError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code": 50035, "message": "Invalid Form Body"}`))
	})

	_, err := c.RegisterCommands(context.Background(), "guild")
	require.Error(t, err)

	var er *apiError
	require.ErrorAs(t, err, &er)
	assert.Equal(t, 50035, er.Code)
	assert.Equal(t, http.StatusBadRequest, er.StatusCode)
	assert.Equal(t, "Invalid Form Body", er.Message)
}

func TestClearCommands(t *testing.T) {
	var methods []string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`[{"name": "count"}, {"name": "help"}]`))
			return
		}
		_, _ = w.Write([]byte("[]"))
	})

	n, err := c.ClearCommands(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{http.MethodGet, http.MethodPut}, methods)
}

func TestDownload(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("<html></html>"))
	})

	byts, err := c.Download(context.Background(), c.baseURL+"/log.html")
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(byts))

	_, err = c.Download(context.Background(), c.baseURL+"/missing")
	assert.Error(t, err)
}

func TestCommands(t *testing.T) {
	seen := map[string]bool{}
	for _, cmd := range Commands() {
		assert.False(t, seen[cmd.Name], "duplicate command %s", cmd.Name)
		seen[cmd.Name] = true

		if cmd.Type == discordgo.ChatApplicationCommand {
			assert.NotEmpty(t, cmd.Description, cmd.Name)
			assert.Equal(t, strings.ToLower(cmd.Name), cmd.Name)
		} else {
			assert.Empty(t, cmd.Description, "context menus have no description")
		}
	}

	for _, name := range []string{"count", "words", "message", "attachment", "keyword", "analyze_chat", "help", MessageWordCount, UserStats} {
		assert.True(t, seen[name], name)
	}
}
