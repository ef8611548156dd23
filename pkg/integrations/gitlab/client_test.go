package gitlab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
)

func testClient(t *testing.T, serverURL, token string) *Client {
	t.Helper()
	c := NewClient("gitlab.test", token)
	c.baseURL = serverURL + "/api/v4"
	return c
}

func TestNewClient(t *testing.T) {
	c := NewClient("gitlab.gnome.org", "")
	if c.baseURL != "https://gitlab.gnome.org/api/v4" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
	if c.Host() != "gitlab.gnome.org" {
		t.Errorf("Host() = %q", c.Host())
	}
}

func TestProjectsPaginates(t *testing.T) {
	var server *httptest.Server
	var token string
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = r.Header.Get("PRIVATE-TOKEN")
		if r.URL.Path != "/api/v4/projects" {
			http.NotFound(w, r)
			return
		}
		switch r.URL.Query().Get("page") {
		case "":
			if r.URL.Query().Get("per_page") != "100" || r.URL.Query().Get("simple") != "false" {
				t.Errorf("unexpected query %q", r.URL.RawQuery)
			}
			w.Header().Set("Link", `<`+server.URL+`/api/v4/projects?page=2&per_page=100>; rel="next"`)
			json.NewEncoder(w).Encode([]project{
				{Name: "lollypop", HTTPURLToRepo: "https://gitlab.gnome.org/World/lollypop.git"},
				{Name: "fork", HTTPURLToRepo: "https://gitlab.gnome.org/someone/lollypop.git", ForkedFromProject: &parentProject{ID: 1}},
			})
		case "2":
			json.NewEncoder(w).Encode([]project{
				{Name: "gnome-builder", HTTPURLToRepo: "https://gitlab.gnome.org/GNOME/gnome-builder.git"},
			})
		}
	}))
	defer server.Close()

	c := testClient(t, server.URL, "secret")
	urls, err := c.Projects(context.Background())
	if err != nil {
		t.Fatalf("Projects() error: %v", err)
	}
	want := []string{
		"https://gitlab.gnome.org/World/lollypop.git",
		"https://gitlab.gnome.org/GNOME/gnome-builder.git",
	}
	if !slices.Equal(urls, want) {
		t.Errorf("Projects() = %v, want %v", urls, want)
	}
	if token != "secret" {
		t.Errorf("PRIVATE-TOKEN = %q, want %q", token, "secret")
	}
}

func TestProjectsStopsOnEmptyPage(t *testing.T) {
	var server *httptest.Server
	calls := 0
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Link", `<`+server.URL+`/api/v4/projects?page=99>; rel="next"`)
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	urls, err := testClient(t, server.URL, "").Projects(context.Background())
	if err != nil {
		t.Fatalf("Projects() error: %v", err)
	}
	if len(urls) != 0 || calls != 1 {
		t.Errorf("Projects() = %v after %d calls, want none after 1", urls, calls)
	}
}

func TestSearchLister(t *testing.T) {
	var search string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v4/search" || r.URL.Query().Get("scope") != "projects" {
			http.NotFound(w, r)
			return
		}
		search = r.URL.Query().Get("search")
		json.NewEncoder(w).Encode([]project{
			{Name: "fpm", HTTPURLToRepo: "https://gitlab.com/louib/fpm.git"},
		})
	}))
	defer server.Close()

	urls, err := testClient(t, server.URL, "").SearchLister("flatpak").ListRepositories(context.Background())
	if err != nil {
		t.Fatalf("ListRepositories() error: %v", err)
	}
	if search != "flatpak" {
		t.Errorf("search = %q, want flatpak", search)
	}
	if !slices.Equal(urls, []string{"https://gitlab.com/louib/fpm.git"}) {
		t.Errorf("ListRepositories() = %v", urls)
	}
}

func TestProjectsKeepsPartialResultsOnError(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Link", `<`+server.URL+`/api/v4/projects?page=2>; rel="next"`)
		json.NewEncoder(w).Encode([]project{{Name: "calls", HTTPURLToRepo: "https://source.puri.sm/Librem5/calls.git"}})
	}))
	defer server.Close()

	urls, err := testClient(t, server.URL, "").InstanceLister().ListRepositories(context.Background())
	if err == nil {
		t.Fatal("expected error for failing page")
	}
	if len(urls) != 1 {
		t.Errorf("partial urls = %v, want 1 entry", urls)
	}
}
