package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSendGridSenderRequiresKey(t *testing.T) {
	_, err := NewSendGridSender("", "from@example.com", "App")
	require.Error(t, err)
}

func TestSendGridSender(t *testing.T) {
	var gotAuth string
	var payload map[string]any
	status := http.StatusAccepted

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	sender, err := NewSendGridSender("SG.test-key", "rachhen.it@gmail.com", "Task Manager", WithSendGridHost(srv.URL))
	require.NoError(t, err)

	t.Run("posts the rendered message", func(t *testing.T) {
		require.NoError(t, sender.Send(context.Background(), Welcome("user@example.com", "User")))
		assert.Equal(t, "Bearer SG.test-key", gotAuth)
		assert.Equal(t, "Thanks for joining in!", payload["subject"])
		from := payload["from"].(map[string]any)
		assert.Equal(t, "rachhen.it@gmail.com", from["email"])
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		status = http.StatusUnauthorized
		err := sender.Send(context.Background(), Cancellation("user@example.com", "User"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 401")
	})
}
