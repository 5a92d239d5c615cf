package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"leafcheck/internal/logging"
	"leafcheck/internal/transport"
	"leafcheck/internal/verdict"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"
)

// fakeClassifier answers by file name. A gated name blocks until its channel
// is closed; every call is announced on started when it is set.
type fakeClassifier struct {
	mu        sync.Mutex
	calls     int
	responses map[string]string
	gates     map[string]chan struct{}
	started   chan string
	err       error
	panicWith any
}

func (f *fakeClassifier) Classify(ctx context.Context, file transport.File) (any, error) {
	f.mu.Lock()
	f.calls++
	body := f.responses[file.Name]
	gate := f.gates[file.Name]
	f.mu.Unlock()

	if f.started != nil {
		f.started <- file.Name
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	if f.err != nil {
		return nil, f.err
	}
	return verdict.Decode([]byte(body))
}

func (f *fakeClassifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

const (
	freshBody = `{"success":true,"result":{"ok":true,"fresh":true,"proba":0.87,
		"features":{"gcv":1.2,"area":340.5,"aspect_ratio":1.1,"roundness":0.9}}}`
	staleBody  = `{"success":true,"result":{"ok":true,"fresh":false,"proba":0.66}}`
	noLeafBody = `{"success":true,"result":{"ok":false}}`
	failedBody = `{"success":false,"error":"cannot identify image file"}`
)

func TestSubmit_WithoutInputSendsNothing(t *testing.T) {
	fc := &fakeClassifier{}
	ctrl := NewController(New(LatestIssued), fc)

	o, err := ctrl.Submit(context.Background())

	assert.ErrorIs(t, err, ErrMissingInput)
	assert.Nil(t, o)
	assert.Equal(t, 0, fc.Calls())
	assert.Equal(t, Idle, ctrl.Session().State())
	assert.Nil(t, ctrl.Session().Outcome())
}

func TestSubmit_Outcomes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want verdict.Outcome
	}{
		{
			name: "classified",
			body: freshBody,
			want: verdict.Classified{
				IsPositive:  true,
				Probability: 0.87,
				Features:    &verdict.Features{GCV: 1.2, Area: 340.5, AspectRatio: 1.1, Roundness: 0.9},
			},
		},
		{
			name: "rejected",
			body: noLeafBody,
			want: verdict.Rejected{Reason: verdict.DefaultRejectReason},
		},
		{
			name: "service failure",
			body: failedBody,
			want: verdict.TransportError{Message: verdict.MsgPredictionFailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeClassifier{responses: map[string]string{"leaf.jpg": tt.body}}
			s := New(LatestIssued)
			s.SelectInput(leaf("leaf.jpg"))

			got, err := NewController(s, fc).Submit(context.Background())
			require.NoError(t, err)

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Submit outcome mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.want, s.Outcome()); diff != "" {
				t.Errorf("session outcome mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, Settled, s.State())
			assert.Equal(t, 1, fc.Calls())
		})
	}
}

func TestSubmit_TransportFailureSettles(t *testing.T) {
	failures := []error{
		errors.New("send request: connection refused"),
		&transport.StatusError{StatusCode: 500, Body: "boom"},
		transport.ErrDecode,
		context.DeadlineExceeded,
	}

	for _, failure := range failures {
		fc := &fakeClassifier{err: failure}
		s := New(LatestIssued)
		s.SelectInput(leaf("leaf.jpg"))

		got, err := NewController(s, fc).Submit(context.Background())

		require.NoError(t, err)
		assert.Equal(t, verdict.Outcome(verdict.TransportError{Message: verdict.MsgSomethingWrong}), got)
		assert.Equal(t, got, s.Outcome())
		assert.Equal(t, Settled, s.State(), "lifecycle must leave Submitting after %v", failure)
		assert.Equal(t, 0, s.InFlight())
	}
}

func TestSubmit_LogsDurationAndOrdering(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logging.Replace(zap.New(core))
	t.Cleanup(func() { logging.Replace(nil) })

	s := New(LastResolved)
	s.SelectInput(leaf("leaf.jpg"))
	_, err := NewController(s, &fakeClassifier{responses: map[string]string{"leaf.jpg": freshBody}}).
		Submit(context.Background())
	require.NoError(t, err)

	settled := logs.FilterMessage("submission settled").All()
	require.Len(t, settled, 1)
	fields := settled[0].ContextMap()
	assert.Equal(t, "last_resolved", fields["ordering"])
	d, ok := fields["duration"].(time.Duration)
	require.True(t, ok, "duration must be logged as a time.Duration")
	assert.GreaterOrEqual(t, int64(d), int64(0))
}

func TestSubmit_PanicInClassifierSettles(t *testing.T) {
	fc := &fakeClassifier{panicWith: "decoder exploded"}
	s := New(LatestIssued)
	s.SelectInput(leaf("leaf.jpg"))

	got, err := NewController(s, fc).Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, verdict.Outcome(verdict.TransportError{Message: verdict.MsgSomethingWrong}), got)
	assert.Equal(t, Settled, s.State())
}

func TestSubmit_ResubmitReplacesOutcome(t *testing.T) {
	fc := &fakeClassifier{responses: map[string]string{"a.jpg": freshBody, "b.jpg": noLeafBody}}
	s := New(LatestIssued)
	ctrl := NewController(s, fc)

	s.SelectInput(leaf("a.jpg"))
	_, err := ctrl.Submit(context.Background())
	require.NoError(t, err)
	require.IsType(t, verdict.Classified{}, s.Outcome())

	s.SelectInput(leaf("b.jpg"))
	require.Nil(t, s.Outcome())

	_, err = ctrl.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, verdict.Outcome(verdict.Rejected{Reason: verdict.DefaultRejectReason}), s.Outcome())
}

// overlap issues a slow request for slow.jpg, then a fast one for fast.jpg
// that resolves first, then lets the slow one finish.
func overlap(t *testing.T, ordering Ordering) (*Session, [2]verdict.Outcome) {
	t.Helper()

	release := make(chan struct{})
	fc := &fakeClassifier{
		responses: map[string]string{"slow.jpg": staleBody, "fast.jpg": freshBody},
		gates:     map[string]chan struct{}{"slow.jpg": release},
		started:   make(chan string, 2),
	}
	s := New(ordering)
	ctrl := NewController(s, fc)

	var results [2]verdict.Outcome
	var g errgroup.Group

	s.SelectInput(leaf("slow.jpg"))
	g.Go(func() error {
		o, err := ctrl.Submit(context.Background())
		results[0] = o
		return err
	})
	require.Equal(t, "slow.jpg", <-fc.started)

	s.SelectInput(leaf("fast.jpg"))
	fast, err := ctrl.Submit(context.Background())
	require.NoError(t, err)
	results[1] = fast
	require.Equal(t, "fast.jpg", <-fc.started)

	switch ordering {
	case LatestIssued:
		assert.Equal(t, Settled, s.State())
		assert.Equal(t, verdict.Outcome(fast), s.Outcome())
	case LastResolved:
		assert.Equal(t, Settled, s.State())
	}
	assert.Equal(t, 1, s.InFlight())

	close(release)
	require.NoError(t, g.Wait())
	assert.Equal(t, 2, fc.Calls())
	return s, results
}

func TestSubmit_Overlapping_LatestIssuedWins(t *testing.T) {
	s, results := overlap(t, LatestIssued)

	assert.IsType(t, verdict.Classified{}, results[0])
	assert.False(t, results[0].(verdict.Classified).IsPositive, "slow request still returns its own outcome")
	assert.Equal(t, results[1], s.Outcome(), "only the latest issued request is displayed")
	assert.Equal(t, Settled, s.State())
	assert.Equal(t, 0, s.InFlight())
}

func TestSubmit_Overlapping_LastResolvedWins(t *testing.T) {
	s, results := overlap(t, LastResolved)

	assert.Equal(t, results[0], s.Outcome(), "the slow response arrives last and overwrites")
	assert.Equal(t, Settled, s.State())
}

func TestDispatch_DoesNotTouchSession(t *testing.T) {
	fc := &fakeClassifier{responses: map[string]string{"a.jpg": freshBody}}
	s := New(LatestIssued)
	s.SelectInput(leaf("a.jpg"))
	tk, err := s.Begin()
	require.NoError(t, err)

	o := NewController(s, fc).Dispatch(context.Background(), tk)

	assert.IsType(t, verdict.Classified{}, o)
	assert.Equal(t, Submitting, s.State())
	assert.Nil(t, s.Outcome())
}

func TestFailureKind(t *testing.T) {
	assert.Equal(t, "status", failureKind(&transport.StatusError{StatusCode: 502}))
	assert.Equal(t, "decode", failureKind(transport.ErrDecode))
	assert.Equal(t, "context", failureKind(context.Canceled))
	assert.Equal(t, "network", failureKind(errors.New("dial tcp: refused")))
}
