package practice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const bankDocument = `[
	{"question": "Which service stores objects?", "options": {"A": "S3", "B": "EC2"}, "correctAnswer": "A"},
	{"question": "Which service runs VMs?", "options": {"A": "S3", "B": "EC2"}}
]`

func awaitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("fetch task never answered")
		return Result{}
	}
}

func TestFetchDecodesBank(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(bankDocument))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, zerolog.Nop())
	res := awaitResult(t, f.Fetch(context.Background()))

	if res.Err != nil {
		t.Fatalf("Err = %v", res.Err)
	}
	if len(res.Questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(res.Questions))
	}
	if res.Questions[0].Options["A"] != "S3" {
		t.Errorf("Options[A] = %q, want S3", res.Questions[0].Options["A"])
	}
	if res.Questions[0].CorrectAnswer != "A" {
		t.Errorf("CorrectAnswer = %q, want A", res.Questions[0].CorrectAnswer)
	}
	if res.Questions[1].CorrectAnswer != "" {
		t.Errorf("CorrectAnswer should be optional, got %q", res.Questions[1].CorrectAnswer)
	}
}

func TestFetchAnswersExactlyOnceOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, zerolog.Nop())
	ch := f.Fetch(context.Background())

	res := awaitResult(t, ch)
	if res.Err == nil {
		t.Fatal("want error for 500 response")
	}

	select {
	case extra, ok := <-ch:
		if ok {
			t.Errorf("task answered twice: %+v", extra)
		}
	case <-time.After(100 * time.Millisecond):
		// no second message: the contract holds
	}
}

func TestFetchUnconfiguredURL(t *testing.T) {
	f := NewFetcher("", zerolog.Nop())
	res := awaitResult(t, f.Fetch(context.Background()))
	if res.Err == nil {
		t.Fatal("want error for unconfigured URL")
	}
}

func TestFetchMalformedDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "an array"`))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, zerolog.Nop())
	res := awaitResult(t, f.Fetch(context.Background()))
	if res.Err == nil {
		t.Fatal("want decode error")
	}
}
