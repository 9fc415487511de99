package release

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func setupServer(t *testing.T) (*http.ServeMux, *httptest.Server) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return mux, srv
}

func TestVersions(t *testing.T) {
	mux, srv := setupServer(t)
	mux.HandleFunc(
		"GET /repos/luminahq/lumina/releases",
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode([]map[string]string{
				{
					"tag_name": "v1.4.2",
				},
			})
		},
	)

	tests := []struct {
		testName string // description of this test case
		// Named input parameters for target function.
		url     string
		path    string
		want    []string
		wantErr bool
	}{
		{
			testName: "single release",
			url:      srv.URL + "/repos/luminahq/lumina/releases",
			path:     "$[*].tag_name",
			want:     []string{"v1.4.2"},
			wantErr:  false,
		},
		{
			testName: "missing feed",
			url:      srv.URL + "/repos/luminahq/other/releases",
			path:     "$[*].tag_name",
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			got, gotErr := Versions(context.Background(), http.DefaultClient, tt.url, tt.path)
			if gotErr != nil {
				if !tt.wantErr {
					t.Errorf("Versions() failed: %v", gotErr)
				}
				return
			}
			if tt.wantErr {
				t.Fatal("Versions() succeeded unexpectedly")
			}
			if d := cmp.Diff(tt.want, got); d != "" {
				t.Errorf("Versions() mismatch (-want/+got): %v", d)
			}
		})
	}
}

func TestVersionsPaginated(t *testing.T) {
	mux, srv := setupServer(t)
	mux.HandleFunc(
		"GET /repos/luminahq/lumina/releases",
		func(w http.ResponseWriter, r *http.Request) {
			page, _ := strconv.Atoi(r.URL.Query().Get("page"))
			if page == 0 {
				page = 1
			}
			perPage := 2

			releases := []map[string]string{
				{"tag_name": "v1.4.2"},
				{"tag_name": "v1.4.1"},
				{"tag_name": "v1.4.0"},
				{"tag_name": "v1.3.0"},
			}

			w.Header().Set("Content-Type", "application/json")
			if page*perPage < len(releases) {
				w.Header().Set("Link", fmt.Sprintf(`<%s/repos/luminahq/lumina/releases?page=%d>; rel="next"`, srv.URL, page+1))
			}
			_ = json.NewEncoder(w).Encode(releases[(page-1)*perPage : page*perPage])
		},
	)

	want := []string{"v1.4.2", "v1.4.1", "v1.4.0", "v1.3.0"}
	got, err := Versions(context.Background(), http.DefaultClient, srv.URL+"/repos/luminahq/lumina/releases", "$[*].tag_name")
	if err != nil {
		t.Fatalf("Versions() failed: %v", err)
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("Versions() mismatch (-want/+got): %v", d)
	}
}

func TestFindLatest(t *testing.T) {
	tests := []struct {
		testName string // description of this test case
		// Named input parameters for target function.
		versions    []string
		constraints string
		prefix      string
		want        string
		wantErr     bool
	}{
		{
			versions:    []string{"v1.4.2", "v1.3.0"},
			constraints: "*",
			prefix:      "v",
			want:        "v1.4.2",
			wantErr:     false,
		},
		{
			versions:    []string{"v1.4.2", "v1.3.0"},
			constraints: "<1.4.0",
			prefix:      "v",
			want:        "v1.3.0",
			wantErr:     false,
		},
		{
			versions:    []string{"1.4.2", "2.0.0-rc1"},
			constraints: "latest",
			want:        "1.4.2",
			wantErr:     false,
		},
		{
			versions:    []string{"not-a-version"},
			constraints: "*",
			wantErr:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			got, gotErr := FindLatest(tt.versions, tt.constraints, tt.prefix)
			if gotErr != nil {
				if !tt.wantErr {
					t.Errorf("FindLatest() failed: %v", gotErr)
				}
				return
			}
			if tt.wantErr {
				t.Fatal("FindLatest() succeeded unexpectedly")
			}
			if got != tt.want {
				t.Errorf("FindLatest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		testName  string
		current   string
		candidate string
		prefix    string
		want      bool
		wantErr   bool
	}{
		{current: "1.4.2", candidate: "v1.5.0", prefix: "v", want: true},
		{current: "1.4.2", candidate: "v1.4.2", prefix: "v", want: false},
		{current: "1.4.2", candidate: "v1.4.1", prefix: "v", want: false},
		{current: "nope", candidate: "v1.4.1", prefix: "v", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			got, gotErr := Compare(tt.current, tt.candidate, tt.prefix)
			if gotErr != nil {
				if !tt.wantErr {
					t.Errorf("Compare() failed: %v", gotErr)
				}
				return
			}
			if tt.wantErr {
				t.Fatal("Compare() succeeded unexpectedly")
			}
			if got != tt.want {
				t.Errorf("Compare() = %v, want %v", got, tt.want)
			}
		})
	}
}
