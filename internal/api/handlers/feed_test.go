package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dom/blog-backend/internal/testutil"
	"github.com/dom/blog-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedHandler_PostLifecycle(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().WithUsername("streamer").BuildAndAuthenticate(t, ts)

	feed := testutil.NewWSClient(t, ts.FeedURL())
	require.Eventually(t, func() bool {
		return ts.Hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	resp := doRequest(t, "POST", ts.APIURL("/blogs"), map[string]string{"title": "Live", "content": "now"}, token)
	testutil.AssertStatusCode(t, resp, http.StatusCreated)
	var created testutil.PostResponse
	testutil.AssertJSONResponse(t, resp, &created)

	msg := feed.ExpectMessage(websocket.MessageTypePostCreated, 2*time.Second)
	var post testutil.PostJSON
	require.NoError(t, json.Unmarshal(msg.Payload, &post))
	assert.Equal(t, created.Data.ID, post.ID)
	assert.Equal(t, "streamer", post.Author.Username)

	postURL := ts.APIURL("/blogs/" + created.Data.ID)
	resp = doRequest(t, "PUT", postURL, map[string]string{"title": "Edited"}, token)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	msg = feed.ExpectMessage(websocket.MessageTypePostUpdated, 2*time.Second)
	require.NoError(t, json.Unmarshal(msg.Payload, &post))
	assert.Equal(t, "Edited", post.Title)

	resp = doRequest(t, "DELETE", postURL, nil, token)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	msg = feed.ExpectMessage(websocket.MessageTypePostDeleted, 2*time.Second)
	var deleted websocket.PostDeletedPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &deleted))
	assert.Equal(t, created.Data.ID, deleted.ID.String())
}

func TestFeedHandler_FailedWritesAreSilent(t *testing.T) {
	ts := testutil.NewTestServer(t)
	owner, _ := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	_, otherToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	post := testutil.NewPostBuilder().WithAuthor(owner).Build(t, ts.DB.DB)

	feed := testutil.NewWSClient(t, ts.FeedURL())
	require.Eventually(t, func() bool {
		return ts.Hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	resp := doRequest(t, "DELETE", ts.APIURL("/blogs/"+post.ID.String()), nil, otherToken)
	testutil.AssertStatusCode(t, resp, http.StatusForbidden)

	feed.ExpectNoMessage(200 * time.Millisecond)
}

func TestFeedHandler_PlainHTTPRejected(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.Get(ts.APIURL("/blogs/feed"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
