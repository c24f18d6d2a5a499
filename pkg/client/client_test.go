package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUploadImage(t *testing.T) {
	var gotContentType string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != imagePath {
			t.Errorf("path = %s, want %s", r.URL.Path, imagePath)
		}
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, `{"image_uri":"https://cdn.example/img/abc.png","is_nsfw":false}`)
	}))
	defer server.Close()

	c := New(server.URL, 0)
	result, err := c.UploadImage(context.Background(), []byte("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("UploadImage failed: %v", err)
	}

	if result.ImageURI != "https://cdn.example/img/abc.png" {
		t.Errorf("ImageURI = %s", result.ImageURI)
	}
	if gotContentType != "image/png" {
		t.Errorf("Content-Type = %s, want image/png", gotContentType)
	}
	if string(gotBody) != "png-bytes" {
		t.Errorf("body = %q, want raw bytes", gotBody)
	}
}

func TestUploadImage_EmptyPayload(t *testing.T) {
	c := New("http://unused.example", 0)
	if _, err := c.UploadImage(context.Background(), nil, "image/png"); err == nil {
		t.Fatal("expected an error for an empty payload")
	}
}

func TestUploadMetadata(t *testing.T) {
	var gotDoc map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != metadataPath {
			t.Errorf("path = %s, want %s", r.URL.Path, metadataPath)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s", ct)
		}
		json.NewDecoder(r.Body).Decode(&gotDoc)
		io.WriteString(w, `{"metadata_uri":"https://cdn.example/meta/xyz.json","metadata":{"name":"Moon"}}`)
	}))
	defer server.Close()

	c := New(server.URL, 0)
	result, err := c.UploadMetadata(context.Background(), MetadataParams{
		ImageURI: "https://cdn.example/img/abc.png",
		Name:     "Moon",
		Symbol:   "MOON",
		Website:  OptionalLink("https://moon.example"),
		Twitter:  OptionalLink(""),
	})
	if err != nil {
		t.Fatalf("UploadMetadata failed: %v", err)
	}

	if result.MetadataURI != "https://cdn.example/meta/xyz.json" {
		t.Errorf("MetadataURI = %s", result.MetadataURI)
	}
	if gotDoc["website"] != "https://moon.example" {
		t.Errorf("website = %v", gotDoc["website"])
	}
	// An absent link must be sent as null, not omitted and not "".
	if v, present := gotDoc["twitter"]; !present || v != nil {
		t.Errorf("twitter = %v (present=%v), want explicit null", v, present)
	}
}

func TestUploadMetadata_RequiresImageURI(t *testing.T) {
	c := New("http://unused.example", 0)
	if _, err := c.UploadMetadata(context.Background(), MetadataParams{Name: "Moon"}); err == nil {
		t.Fatal("expected an error without an image URI")
	}
}

func TestMineSalt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != saltPath {
			t.Errorf("path = %s, want %s", r.URL.Path, saltPath)
		}
		io.WriteString(w, `{"salt":"0x01","address":"0xdeadbeef"}`)
	}))
	defer server.Close()

	c := New(server.URL, 0)
	result, err := c.MineSalt(context.Background(), SaltParams{
		Creator:     "0xabc",
		Name:        "Moon",
		Symbol:      "MOON",
		MetadataURI: "https://cdn.example/meta/xyz.json",
	})
	if err != nil {
		t.Fatalf("MineSalt failed: %v", err)
	}
	if result.Salt != "0x01" || result.Address != "0xdeadbeef" {
		t.Errorf("result = %+v", result)
	}
}

func TestMineSalt_ValidatesParams(t *testing.T) {
	c := New("http://unused.example", 0)

	params := SaltParams{Creator: "0xabc", Name: "Moon", Symbol: "MOON", MetadataURI: "uri"}
	for _, blank := range []func(*SaltParams){
		func(p *SaltParams) { p.Creator = "" },
		func(p *SaltParams) { p.Name = "" },
		func(p *SaltParams) { p.Symbol = "" },
		func(p *SaltParams) { p.MetadataURI = "" },
	} {
		p := params
		blank(&p)
		if _, err := c.MineSalt(context.Background(), p); err == nil {
			t.Errorf("expected an error for %+v", p)
		}
	}
}

func TestAPIErrorExtraction(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error field", http.StatusBadRequest, `{"error":"name too long"}`, "name too long"},
		{"message field", http.StatusUnprocessableEntity, `{"message":"symbol required"}`, "symbol required"},
		{"non-json body falls back", http.StatusInternalServerError, `<html>oops</html>`, http.StatusText(http.StatusInternalServerError)},
		{"empty body falls back", http.StatusBadGateway, ``, http.StatusText(http.StatusBadGateway)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			c := New(server.URL, 0)
			_, err := c.UploadImage(context.Background(), []byte("x"), "image/png")
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestClient_TrimsTrailingSlash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "//") {
			t.Errorf("doubled slash in path: %s", r.URL.Path)
		}
		io.WriteString(w, `{"image_uri":"u","is_nsfw":false}`)
	}))
	defer server.Close()

	c := New(server.URL+"/", 0)
	if _, err := c.UploadImage(context.Background(), []byte("x"), "image/png"); err != nil {
		t.Fatalf("UploadImage failed: %v", err)
	}
}
