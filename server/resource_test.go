package server

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestServer_Resource(t *testing.T) {
	srv := New(Info{Name: "test", Version: "1.0.0"})

	b := srv.Resource("files://{path}").
		Name("File").
		Description("Read file contents").
		MimeType("text/plain").
		Handler(func(ctx context.Context, uri string, params map[string]string) (string, error) {
			return "file contents", nil
		})
	if b.Err() != nil {
		t.Fatalf("unexpected error: %v", b.Err())
	}

	resources := srv.Resources()
	if len(resources) != 1 {
		t.Fatalf("expected 1 resource, got %d", len(resources))
	}

	want := ResourceInfo{
		URITemplate: "files://{path}",
		Name:        "File",
		Description: "Read file contents",
		MimeType:    "text/plain",
	}
	if resources[0] != want {
		t.Errorf("got %+v, want %+v", resources[0], want)
	}

	data, err := json.Marshal(resources[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	wantJSON := `{"uri":"files://{path}","name":"File","description":"Read file contents","mimeType":"text/plain"}`
	if string(data) != wantJSON {
		t.Errorf("got %s, want %s", data, wantJSON)
	}
}

func TestResource_Read(t *testing.T) {
	srv := New(Info{Name: "test", Version: "1.0.0"})
	srv.Resource("db://users/{id}").
		Name("User").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (string, error) {
			if params["id"] == "0" {
				return "", errors.New("no such user")
			}
			return `{"id":"` + params["id"] + `"}`, nil
		})

	t.Run("reads resource with parameters", func(t *testing.T) {
		r, ok := srv.FindResourceForURI("db://users/42")
		if !ok {
			t.Fatal("expected resource to match")
		}

		result, err := r.Read(context.Background(), "db://users/42")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Contents) != 1 {
			t.Fatalf("expected 1 content, got %d", len(result.Contents))
		}
		c := result.Contents[0]
		if c.URI != "db://users/42" || c.MimeType != "application/json" || c.Text != `{"id":"42"}` {
			t.Errorf("unexpected content %+v", c)
		}
	})

	t.Run("propagates handler errors", func(t *testing.T) {
		r, _ := srv.FindResourceForURI("db://users/0")
		if _, err := r.Read(context.Background(), "db://users/0"); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("rejects non-matching uri", func(t *testing.T) {
		r, _ := srv.FindResourceForURI("db://users/1")
		if _, err := r.Read(context.Background(), "db://groups/1"); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestFindResourceForURI(t *testing.T) {
	srv := New(Info{Name: "test", Version: "1.0.0"})
	handler := func(ctx context.Context, uri string, params map[string]string) (string, error) {
		return "", nil
	}
	srv.Resource("time://current").Handler(handler)
	srv.Resource("files://{dir}/{name}").Handler(handler)

	tests := []struct {
		uri   string
		match bool
	}{
		{"time://current", true},
		{"time://current/x", false},
		{"time://other", false},
		{"files://a/b", true},
		{"files://a", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			_, ok := srv.FindResourceForURI(tt.uri)
			if ok != tt.match {
				t.Errorf("FindResourceForURI(%q) = %v, want %v", tt.uri, ok, tt.match)
			}
		})
	}
}
