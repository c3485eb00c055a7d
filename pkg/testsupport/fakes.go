package testsupport

import (
	"context"
	"sync"

	"github.com/goliatone/go-authflow/pkg/engine"
	"github.com/goliatone/go-authflow/pkg/model"
)

// Collaborator actions recorded by Fake.
const (
	CallSend          = "send"
	CallVerify        = "verify"
	CallRegister      = "register"
	CallResetPassword = "reset-password"
	CallLogin         = "login"
)

// Call is one recorded collaborator invocation.
type Call struct {
	Action   string
	Phone    string
	Code     string
	Password string
	Form     model.FormState
}

// Fake implements every engine collaborator, records the calls it receives
// and returns the scripted results. The zero value accepts everything.
type Fake struct {
	mu    sync.Mutex
	calls []Call

	// RejectCode makes VerifyCode answer false.
	RejectCode bool
	SendErr    error
	VerifyErr  error
	SubmitErr  error
	LoginErr   error

	// SubmitErrOnce fails the next registration or password reset submit and
	// is then cleared.
	SubmitErrOnce error

	gate    chan struct{}
	entered chan string
}

// NewFake returns a Fake accepting every call.
func NewFake() *Fake {
	return &Fake{}
}

// Collaborators wires f into every engine collaborator slot.
func (f *Fake) Collaborators() engine.Collaborators {
	return engine.Collaborators{
		Sender:        f,
		Verifier:      f,
		Registration:  f,
		PasswordReset: f,
		Auth:          f,
	}
}

// Hold makes subsequent calls block until release is called. entered receives
// the action of every call that starts blocking.
func (f *Fake) Hold() (entered <-chan string, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	ch := make(chan string, 16)
	f.gate = gate
	f.entered = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			f.gate = nil
			f.entered = nil
			f.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns the recorded calls in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Count returns how many calls of action were recorded.
func (f *Fake) Count(action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.calls {
		if call.Action == action {
			n++
		}
	}
	return n
}

func (f *Fake) record(ctx context.Context, call Call) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if gate == nil {
		return nil
	}
	entered <- call.Action
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Fake) SendVerificationCode(ctx context.Context, phone string) error {
	if err := f.record(ctx, Call{Action: CallSend, Phone: phone}); err != nil {
		return err
	}
	return f.SendErr
}

func (f *Fake) VerifyCode(ctx context.Context, phone, code string) (bool, error) {
	if err := f.record(ctx, Call{Action: CallVerify, Phone: phone, Code: code}); err != nil {
		return false, err
	}
	if f.VerifyErr != nil {
		return false, f.VerifyErr
	}
	return !f.RejectCode, nil
}

func (f *Fake) SubmitRegistration(ctx context.Context, form model.FormState) error {
	if err := f.record(ctx, Call{Action: CallRegister, Form: form.Clone()}); err != nil {
		return err
	}
	return f.submitErr()
}

func (f *Fake) SubmitPasswordReset(ctx context.Context, form model.FormState) error {
	if err := f.record(ctx, Call{Action: CallResetPassword, Form: form.Clone()}); err != nil {
		return err
	}
	return f.submitErr()
}

func (f *Fake) Login(ctx context.Context, phone, password string) error {
	if err := f.record(ctx, Call{Action: CallLogin, Phone: phone, Password: password}); err != nil {
		return err
	}
	return f.LoginErr
}

func (f *Fake) submitErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.SubmitErrOnce; err != nil {
		f.SubmitErrOnce = nil
		return err
	}
	return f.SubmitErr
}
