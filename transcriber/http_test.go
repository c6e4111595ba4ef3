package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"murmur/encoder"
)

func verboseJSON(text string, avgLogProbs ...float64) string {
	type seg struct {
		Text       string  `json:"text"`
		Start      float64 `json:"start"`
		End        float64 `json:"end"`
		AvgLogProb float64 `json:"avg_logprob"`
	}
	segs := make([]seg, len(avgLogProbs))
	for i, lp := range avgLogProbs {
		segs[i] = seg{Text: text, Start: float64(i), End: float64(i + 1), AvgLogProb: lp}
	}
	out, _ := json.Marshal(map[string]any{
		"text":     text,
		"duration": 1.5,
		"segments": segs,
	})
	return string(out)
}

func TestHTTPTranscribe(t *testing.T) {
	var gotAuth, gotModel, gotFormat, gotLang string
	var gotFile []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parsing multipart: %v", err)
		}
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("response_format")
		gotLang = r.FormValue("language")
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file part: %v", err)
		} else {
			buf := make([]byte, 4)
			f.Read(buf)
			gotFile = buf
			f.Close()
		}
		w.Write([]byte(verboseJSON("hello world", -0.1, -0.3)))
	}))
	defer srv.Close()

	tr := NewHTTP(srv.URL, "whisper-large-v3-turbo", "test-key")
	tr.SetLanguage("en")

	pcm := make([]byte, 16000)
	res, err := tr.Transcribe(context.Background(), pcm)
	if err != nil {
		t.Fatal(err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotModel != "whisper-large-v3-turbo" {
		t.Errorf("model = %q", gotModel)
	}
	if gotFormat != "verbose_json" {
		t.Errorf("response_format = %q", gotFormat)
	}
	if gotLang != "en" {
		t.Errorf("language = %q", gotLang)
	}
	if string(gotFile) != "RIFF" {
		t.Errorf("uploaded file does not start with RIFF: %q", gotFile)
	}

	if res.Text != "hello world" {
		t.Errorf("text = %q", res.Text)
	}
	if res.Duration != 1.5 {
		t.Errorf("duration = %v", res.Duration)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(res.Segments))
	}
	want := math.Exp((-0.1 + -0.3) / 2)
	if math.Abs(res.Confidence-want) > 1e-9 {
		t.Errorf("confidence = %v, want %v", res.Confidence, want)
	}
}

func TestHTTPTranscribeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	tr := NewHTTP(srv.URL, "", "bad-key")
	_, err := tr.Transcribe(context.Background(), make([]byte, encoder.WAVHeaderSize))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error does not mention status: %v", err)
	}
}

func TestHTTPTranscribeContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	tr := NewHTTP(srv.URL, "", "key")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := tr.Transcribe(ctx, make([]byte, 320))
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if time.Since(start) > time.Second {
		t.Error("cancellation was not honored promptly")
	}
}

func TestFakeTranscriber(t *testing.T) {
	f := NewFake("done", nil)
	res, err := f.Transcribe(context.Background(), make([]byte, 32000))
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "done" {
		t.Errorf("text = %q", res.Text)
	}
	if res.Duration != 1.0 {
		t.Errorf("duration = %v, want 1.0", res.Duration)
	}
	if f.Calls() != 1 {
		t.Errorf("calls = %d", f.Calls())
	}

	wantErr := errors.New("boom")
	f = NewFake("", wantErr)
	if _, err := f.Transcribe(context.Background(), nil); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestFakeTranscriberDelayCancel(t *testing.T) {
	f := &Fake{Text: "slow", Delay: 5 * time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Transcribe(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
