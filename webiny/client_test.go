package webiny

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type capturedRequest struct {
	Auth        string
	ContentType string
	Query       string
	Variables   map[string]interface{}
}

func newFakeCMS(t *testing.T, handler func(req capturedRequest) (int, string)) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []capturedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Query     string                 `json:"query"`
			Variables map[string]interface{} `json:"variables"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		req := capturedRequest{
			Auth:        r.Header.Get("Authorization"),
			ContentType: r.Header.Get("Content-Type"),
			Query:       payload.Query,
			Variables:   payload.Variables,
		}
		mu.Lock()
		seen = append(seen, req)
		mu.Unlock()
		status, resp := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestRequestSendsQueryAndBearerToken(t *testing.T) {
	srv, seen := newFakeCMS(t, func(req capturedRequest) (int, string) {
		return http.StatusOK, `{"data":{"ok":true}}`
	})
	c := NewClient(srv.URL, "secret-token")

	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.Request(context.Background(), "query Q { ok }", map[string]interface{}{"a": "b"}, &out); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if !out.OK {
		t.Error("expected data.ok to be decoded")
	}
	got := (*seen)[0]
	if got.Auth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want %q", got.Auth, "Bearer secret-token")
	}
	if got.ContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got.ContentType)
	}
	if got.Query != "query Q { ok }" {
		t.Errorf("Query = %q", got.Query)
	}
	if got.Variables["a"] != "b" {
		t.Errorf("Variables = %v", got.Variables)
	}
}

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Warnf(format string, args ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func TestRequestGraphQLErrorCarriesFirstMessage(t *testing.T) {
	srv, _ := newFakeCMS(t, func(req capturedRequest) (int, string) {
		return http.StatusOK, `{"data":null,"errors":[{"message":"first"},{"message":"second"}]}`
	})
	logger := &recordingLogger{}
	c := NewClient(srv.URL, "t", WithLogger(logger))

	err := c.Request(context.Background(), "query Q { ok }", nil, nil)
	var gqlErr *GraphQLError
	if !errors.As(err, &gqlErr) {
		t.Fatalf("expected *GraphQLError, got %T (%v)", err, err)
	}
	if !strings.Contains(err.Error(), "first") || strings.Contains(err.Error(), "second") {
		t.Errorf("Error() = %q, want first message only", err.Error())
	}
	if len(logger.lines) != 1 || !strings.Contains(logger.lines[0], "second") {
		t.Errorf("expected remaining error to be logged, got %v", logger.lines)
	}
}

func TestRequestStatusError(t *testing.T) {
	srv, _ := newFakeCMS(t, func(req capturedRequest) (int, string) {
		return http.StatusUnauthorized, `not json`
	})
	c := NewClient(srv.URL, "t")

	err := c.Request(context.Background(), "query Q { ok }", nil, nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %T (%v)", err, err)
	}
	if statusErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", statusErr.StatusCode)
	}
}

func TestRequestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, "t")
	err := c.Request(context.Background(), "query Q { ok }", nil, nil)
	if err == nil {
		t.Fatal("expected transport error")
	}
	var gqlErr *GraphQLError
	if errors.As(err, &gqlErr) {
		t.Errorf("transport failure should not be a GraphQL error: %v", err)
	}
}

func TestListPosts(t *testing.T) {
	srv, seen := newFakeCMS(t, func(req capturedRequest) (int, string) {
		return http.StatusOK, `{"data":{"listPosts":{"data":[
			{"id":"1#0001","entryId":"1","postHeadline":"Hello","postSlug":"hello",
			 "postTags":["go"],"postDefaultAuthor":{"authorName":"Ada"},
			 "postWrittenDateTime":null,
			 "postSections":[{"postSectionContent":"Body","postSectionImage":null,"postSectionImageDescription":null}]}
		]}}}`
	})
	c := NewClient(srv.URL, "t")

	posts, err := c.ListPosts(context.Background())
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("len(posts) = %d, want 1", len(posts))
	}
	p := posts[0]
	if p.Slug != "hello" || p.Headline != "Hello" {
		t.Errorf("post = %+v", p)
	}
	if p.AuthorName() != "Ada" {
		t.Errorf("AuthorName() = %q, want Ada", p.AuthorName())
	}
	if p.WrittenDateTime != "" {
		t.Errorf("null date should decode empty, got %q", p.WrittenDateTime)
	}
	if len(p.Sections) != 1 || p.Sections[0].Content != "Body" {
		t.Errorf("sections = %+v", p.Sections)
	}
	if !strings.Contains((*seen)[0].Query, `postSectionContent(format: "markdown")`) {
		t.Error("section content must be requested as markdown")
	}
}

func TestGetPostBySlugNotFound(t *testing.T) {
	srv, seen := newFakeCMS(t, func(req capturedRequest) (int, string) {
		return http.StatusOK, `{"data":{"listPosts":{"data":[]}}}`
	})
	c := NewClient(srv.URL, "t")

	p, err := c.GetPostBySlug(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetPostBySlug failed: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil post, got %+v", p)
	}
	if (*seen)[0].Variables["slug"] != "missing" {
		t.Errorf("slug variable = %v", (*seen)[0].Variables["slug"])
	}
}

func TestGetPostAndAuthorByID(t *testing.T) {
	srv, seen := newFakeCMS(t, func(req capturedRequest) (int, string) {
		switch {
		case strings.Contains(req.Query, "getPost("):
			return http.StatusOK, `{"data":{"getPost":{"data":{"id":"p1#0001","postSlug":"hello","postHeadline":"Hello"}}}}`
		case strings.Contains(req.Query, "getAuthor("):
			return http.StatusOK, `{"data":{"getAuthor":{"data":null}}}`
		}
		return http.StatusOK, `{"data":{}}`
	})
	c := NewClient(srv.URL, "t")

	p, err := c.GetPost(context.Background(), "p1#0001")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if p == nil || p.Slug != "hello" || p.Headline != "Hello" {
		t.Errorf("post = %+v", p)
	}
	a, err := c.GetAuthor(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetAuthor failed: %v", err)
	}
	if a != nil {
		t.Errorf("expected nil author, got %+v", a)
	}
	if len(*seen) != 2 || (*seen)[0].Variables["id"] != "p1#0001" || (*seen)[1].Variables["id"] != "missing" {
		t.Errorf("requests = %+v", *seen)
	}
}

func TestAuthorNameFallsBackToReference(t *testing.T) {
	p := Post{AuthorReference: []Author{{Name: ""}, {Name: "Grace"}}}
	if got := p.AuthorName(); got != "Grace" {
		t.Errorf("AuthorName() = %q, want Grace", got)
	}
	if got := (Post{}).AuthorName(); got != "" {
		t.Errorf("AuthorName() = %q, want empty", got)
	}
}

func TestListAuthorsFollowsCursor(t *testing.T) {
	srv, seen := newFakeCMS(t, func(req capturedRequest) (int, string) {
		if req.Variables["after"] == nil {
			return http.StatusOK, `{"data":{"listAuthors":{"data":[{"id":"a1","authorName":"Ada"}],"meta":{"cursor":"c1","hasMoreItems":true,"totalCount":2}}}}`
		}
		return http.StatusOK, `{"data":{"listAuthors":{"data":[{"id":"a2","authorName":"Grace"}],"meta":{"cursor":null,"hasMoreItems":false,"totalCount":2}}}}`
	})
	c := NewClient(srv.URL, "t")

	authors, err := c.ListAuthors(context.Background())
	if err != nil {
		t.Fatalf("ListAuthors failed: %v", err)
	}
	if len(authors) != 2 || authors[1].Name != "Grace" {
		t.Errorf("authors = %+v", authors)
	}
	if len(*seen) != 2 {
		t.Errorf("requests = %d, want 2", len(*seen))
	}
	if (*seen)[1].Variables["after"] != "c1" {
		t.Errorf("second page after = %v, want c1", (*seen)[1].Variables["after"])
	}
}

func TestGetFileUsesFileManagerEndpoint(t *testing.T) {
	readSrv, readSeen := newFakeCMS(t, func(req capturedRequest) (int, string) {
		return http.StatusOK, `{"data":{}}`
	})
	fmSrv, fmSeen := newFakeCMS(t, func(req capturedRequest) (int, string) {
		return http.StatusOK, `{"data":{"fileManager":{"getFile":{"data":{"id":"ABC123","meta":{"width":800,"height":600}}}}}}`
	})
	c := NewClient(readSrv.URL, "t", WithFileManagerEndpoint(fmSrv.URL))

	f, err := c.GetFile(context.Background(), "ABC123")
	if err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}
	if f == nil || f.Meta.Width != 800 || f.Meta.Height != 600 {
		t.Errorf("file = %+v", f)
	}
	if len(*readSeen) != 0 || len(*fmSeen) != 1 {
		t.Errorf("read requests = %d, fm requests = %d", len(*readSeen), len(*fmSeen))
	}
	if (*fmSeen)[0].Variables["id"] != "ABC123" {
		t.Errorf("id variable = %v", (*fmSeen)[0].Variables["id"])
	}
}

func TestFileID(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://cms.example.com/files/ABC123/photo.jpg", "ABC123", true},
		{"/files/6866668c5990ed00021c17cf/cover.webp", "6866668c5990ed00021c17cf", true},
		{"https://cms.example.com/files/ABC123", "", false},
		{"https://cdn.example.com/img/photo.jpg", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := FileID(tt.url)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("FileID(%q) = %q, %v; want %q, %v", tt.url, got, ok, tt.want, tt.wantOK)
		}
	}
}
