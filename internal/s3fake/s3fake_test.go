package s3fake

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestPutThenGet(t *testing.T) {
	srv := New("bucket")
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/bucket/a/b.json", strings.NewReader("[]"))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d", resp.StatusCode)
	}

	if data, ok := srv.Object("a/b.json"); !ok || string(data) != "[]" {
		t.Errorf("Object = (%q, %v)", data, ok)
	}
	if ct := srv.ContentType("a/b.json"); ct != "application/json" {
		t.Errorf("ContentType = %q", ct)
	}

	resp, err = http.Get(srv.URL + "/bucket/a/b.json")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "[]" {
		t.Errorf("GET = %d %q", resp.StatusCode, body)
	}
}

func TestErrors(t *testing.T) {
	srv := New("bucket")
	defer srv.Close()

	tests := []struct {
		path string
		code string
	}{
		{"/bucket/missing", "NoSuchKey"},
		{"/other/key", "NoSuchBucket"},
	}
	for _, tt := range tests {
		resp, err := http.Get(srv.URL + tt.path)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound || !strings.Contains(string(body), "<Code>"+tt.code+"</Code>") {
			t.Errorf("GET %s = %d %s", tt.path, resp.StatusCode, body)
		}
	}

	srv.Fail(http.StatusForbidden, "AccessDenied")
	resp, err := http.Get(srv.URL + "/bucket/missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status after Fail = %d, want 403", resp.StatusCode)
	}
}
