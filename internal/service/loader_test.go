package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prepforge/prepforge-backend/internal/model"
	"github.com/prepforge/prepforge-backend/internal/repository"
	"github.com/rs/zerolog"
)

type fakeSource struct {
	def   *model.TestDefinition
	err   error
	calls int
}

func (f *fakeSource) GetTest(ctx context.Context, testID string) (*model.TestDefinition, error) {
	f.calls++
	return f.def, f.err
}

func validDef() *model.TestDefinition {
	return &model.TestDefinition{
		TestName:        "Networking Basics",
		DurationMinutes: 30,
		Questions: []model.Question{
			{Question: "q", Options: []string{"A", "B"}, Answer: "A"},
		},
	}
}

func TestLoadEmptyIDFailsBeforeStore(t *testing.T) {
	src := &fakeSource{def: validDef()}
	loader := NewTestLoader(src, zerolog.Nop())

	_, err := loader.Load(context.Background(), "")
	if !errors.Is(err, ErrMissingIdentifier) {
		t.Fatalf("err = %v, want ErrMissingIdentifier", err)
	}
	if src.calls != 0 {
		t.Errorf("store was queried %d times before the identifier check", src.calls)
	}
}

func TestLoadMapsStoreErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     *fakeSource
		wantErr error
	}{
		{"miss maps to not found", &fakeSource{err: repository.ErrNotFound}, ErrTestNotFound},
		{"transient store failure", &fakeSource{err: errors.New("connection refused")}, ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewTestLoader(tt.src, zerolog.Nop())
			_, err := loader.Load(context.Background(), "some-id")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRejectsMalformedDefinitions(t *testing.T) {
	noQuestions := validDef()
	noQuestions.Questions = nil

	zeroDuration := validDef()
	zeroDuration.DurationMinutes = 0

	for name, def := range map[string]*model.TestDefinition{
		"zero questions": noQuestions,
		"zero duration":  zeroDuration,
	} {
		t.Run(name, func(t *testing.T) {
			loader := NewTestLoader(&fakeSource{def: def}, zerolog.Nop())
			_, err := loader.Load(context.Background(), "some-id")
			if !errors.Is(err, ErrInvalidTest) {
				t.Errorf("err = %v, want ErrInvalidTest", err)
			}
		})
	}
}

func TestLoadSuccess(t *testing.T) {
	loader := NewTestLoader(&fakeSource{def: validDef()}, zerolog.Nop())

	def, err := loader.Load(context.Background(), "some-id")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if def.TestName != "Networking Basics" || len(def.Questions) != 1 {
		t.Errorf("unexpected definition: %+v", def)
	}
}
