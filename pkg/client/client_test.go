//go:build unit || !integration

package client_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/do4u-project/do4u/pkg/client"
	"github.com/do4u-project/do4u/pkg/marketplaceerrors"
	"github.com/do4u-project/do4u/pkg/models"
	"github.com/do4u-project/do4u/pkg/pubsub"
	"github.com/do4u-project/do4u/pkg/session"
)

type ClientSuite struct {
	suite.Suite
	ctx   context.Context
	store *session.Store
}

func (s *ClientSuite) SetupTest() {
	s.ctx = context.Background()
	store, err := session.NewStore(s.T().TempDir())
	s.Require().NoError(err)
	s.store = store
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) newClient(server *httptest.Server, options ...client.Option) *client.Client {
	c, err := client.New(server.URL, s.store, options...)
	s.Require().NoError(err)
	return c
}

func (s *ClientSuite) TestAttachesBearerToken() {
	s.Require().NoError(s.store.SetToken("tok-123"))

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"j1","title":"Fix sink","status":"POSTED","user_id":"u1"}`))
	}))
	defer server.Close()

	job, err := s.newClient(server).Job(s.ctx, "j1")
	s.Require().NoError(err)
	s.Equal("Bearer tok-123", gotAuth)
	s.Equal("Fix sink", job.Title)
	s.Equal(models.JobStatusPosted, job.Status)
}

func (s *ClientSuite) TestNoAuthorizationHeaderWithoutToken() {
	var hadAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	_, err := s.newClient(server).AvailableJobs(s.ctx)
	s.Require().NoError(err)
	s.False(hadAuth)
}

func (s *ClientSuite) TestUnauthorizedClearsTokenAndSignalsOnce() {
	s.Require().NoError(s.store.SetToken("stale"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"token expired"}`))
	}))
	defer server.Close()

	signal := pubsub.NewInProcessPubSub[client.UnauthorizedEvent]()
	var fired int32
	s.Require().NoError(signal.Subscribe(s.ctx, pubsub.SubscriberFunc[client.UnauthorizedEvent](
		func(_ context.Context, _ client.UnauthorizedEvent) error {
			atomic.AddInt32(&fired, 1)
			return nil
		})))

	c := s.newClient(server, client.WithUnauthorizedSignal(signal))

	_, err := c.Job(s.ctx, "j1")
	s.Require().Error(err)
	s.True(marketplaceerrors.IsUnauthorized(err))
	s.Equal("token expired", err.Error())
	s.Empty(s.store.Token())
	s.Equal(int32(1), atomic.LoadInt32(&fired))

	// A second 401 fires the signal again: once per response, not per process.
	_, err = c.Job(s.ctx, "j1")
	s.Require().Error(err)
	s.Equal(int32(2), atomic.LoadInt32(&fired))
}

func (s *ClientSuite) TestErrorTaxonomyMapping() {
	responses := map[string]struct {
		status int
		body   string
	}{
		"/api/v1/jobs/validation/accept": {http.StatusBadRequest, `{"detail":"insufficient balance"}`},
		"/api/v1/jobs/conflict/accept":   {http.StatusConflict, `{"detail":"job already assigned"}`},
		"/api/v1/jobs/missing/accept":    {http.StatusNotFound, `{"detail":"job not found"}`},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := responses[r.URL.Path]
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(res.status)
		_, _ = w.Write([]byte(res.body))
	}))
	defer server.Close()

	c := s.newClient(server)

	_, err := c.AcceptJob(s.ctx, "validation")
	s.True(marketplaceerrors.IsValidation(err))
	s.Equal("insufficient balance", err.Error())

	_, err = c.AcceptJob(s.ctx, "conflict")
	s.True(marketplaceerrors.IsConflict(err))

	_, err = c.AcceptJob(s.ctx, "missing")
	s.True(marketplaceerrors.IsNotFound(err))
}

func (s *ClientSuite) TestRawBodyPreservedOnNonJSONError() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream down</html>"))
	}))
	defer server.Close()

	_, err := s.newClient(server).Job(s.ctx, "j1")
	s.Require().Error(err)
	s.Equal(http.StatusBadGateway, marketplaceerrors.StatusCode(err))

	var apiErr *marketplaceerrors.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Contains(string(apiErr.Body), "upstream down")
}

func (s *ClientSuite) TestPlainTextAndNoContent() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/text":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("pong"))
		case "/empty":
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer server.Close()

	c := s.newClient(server)

	var text string
	s.Require().NoError(c.Get(s.ctx, "/text", &text))
	s.Equal("pong", text)

	s.Require().NoError(c.Delete(s.ctx, "/empty", nil))
}

func (s *ClientSuite) TestNullLocationMapsToNilSample() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`null`))
	}))
	defer server.Close()

	sample, err := s.newClient(server).JobLocation(s.ctx, "j1")
	s.Require().NoError(err)
	s.Nil(sample)
}

func (s *ClientSuite) TestCreateJobPostsPayloadAndDecodesSnapshot() {
	var gotPath, gotMethod string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"j9","title":"Walk my dog","status":"POSTED","user_id":"u1","price":40}`))
	}))
	defer server.Close()

	price := 40.0
	job, err := s.newClient(server).CreateJob(s.ctx, client.CreateJobRequest{
		Title:       "Walk my dog",
		Description: "30 minutes, morning",
		Location:    "Brooklyn",
		Price:       &price,
	})
	s.Require().NoError(err)

	s.Equal(http.MethodPost, gotMethod)
	s.Equal("/api/v1/jobs/", gotPath)
	s.JSONEq(`{"title":"Walk my dog","description":"30 minutes, morning","location":"Brooklyn","price":40}`, string(gotBody))
	s.Equal("j9", job.ID)
	s.Equal(models.JobStatusPosted, job.Status)
}

func (s *ClientSuite) TestUpdateJobPutsOnlyChangedFields() {
	var gotMethod string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"j9","title":"Walk my dog twice","status":"POSTED","user_id":"u1"}`))
	}))
	defer server.Close()

	title := "Walk my dog twice"
	job, err := s.newClient(server).UpdateJob(s.ctx, "j9", client.UpdateJobRequest{Title: &title})
	s.Require().NoError(err)

	s.Equal(http.MethodPut, gotMethod)
	s.JSONEq(`{"title":"Walk my dog twice"}`, string(gotBody))
	s.Equal("Walk my dog twice", job.Title)
}

func (s *ClientSuite) TestUploadSendsMultipartFormWithFields() {
	var gotFile, gotField string
	var gotFileName string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Require().NoError(r.ParseMultipartForm(1 << 20))

		file, header, err := r.FormFile("attachment")
		s.Require().NoError(err)
		defer file.Close()
		content, _ := io.ReadAll(file)
		gotFile = string(content)
		gotFileName = header.Filename
		gotField = r.FormValue("job_id")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"a1"}`))
	}))
	defer server.Close()

	var out struct {
		ID string `json:"id"`
	}
	err := s.newClient(server).Upload(s.ctx,
		"/api/v1/attachments", "attachment", "receipt.txt",
		strings.NewReader("paid in full"),
		map[string]string{"job_id": "j1"},
		&out)
	s.Require().NoError(err)

	s.Equal("paid in full", gotFile)
	s.Equal("receipt.txt", gotFileName)
	s.Equal("j1", gotField)
	s.Equal("a1", out.ID)
}

func (s *ClientSuite) TestUploadErrorsCarryTaxonomy() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"file too large"}`))
	}))
	defer server.Close()

	err := s.newClient(server).Upload(s.ctx,
		"/api/v1/attachments", "attachment", "huge.bin",
		strings.NewReader("xxxx"), nil, nil)
	s.Require().Error(err)
	s.True(marketplaceerrors.IsValidation(err))
	s.Equal("file too large", err.Error())
}

func (s *ClientSuite) TestChatSocketURL() {
	s.Require().NoError(s.store.SetToken("tok"))

	c, err := client.New("https://do4u.example.com", s.store)
	s.Require().NoError(err)
	s.Equal("wss://do4u.example.com/api/v1/chat/ws/j1?token=tok", c.ChatSocketURL("j1"))

	c, err = client.New("http://localhost:8000", s.store)
	s.Require().NoError(err)
	s.Equal("ws://localhost:8000/api/v1/chat/ws/j1?token=tok", c.ChatSocketURL("j1"))
}
