package discount

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/devdazzlee/southen-sweet-sub000/internal/domain"
)

// ErrValidationInFlight is returned when Apply is called while a previous
// validation has not resolved yet. The aggregator fences duplicate
// submissions itself instead of trusting the caller to debounce.
var ErrValidationInFlight = errors.New("discount validation already in flight")

// Applicator holds one session's discount state and drives the
// Idle -> Validating -> Applied/Failed transitions.
type Applicator struct {
	mu        sync.Mutex
	status    Status
	applied   *domain.Discount
	validator Validator
}

func NewApplicator(validator Validator) *Applicator {
	return &Applicator{
		status:    StatusIdle,
		validator: validator,
	}
}

// Apply normalizes the code to upper case and validates it against the
// current subtotal. A validation failure surfaces the error and leaves any
// previously applied discount untouched.
func (a *Applicator) Apply(ctx context.Context, code string, subtotal float64) (*domain.Discount, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	a.mu.Lock()
	if a.status == StatusValidating {
		a.mu.Unlock()
		return nil, ErrValidationInFlight
	}
	prev := a.applied
	a.status = StatusValidating
	a.mu.Unlock()

	d, err := a.validator.Validate(ctx, code, subtotal)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err != nil {
		// Keep the previous application; a failed attempt never clears it
		a.applied = prev
		if prev != nil {
			a.status = StatusApplied
		} else {
			a.status = StatusFailed
		}
		return nil, err
	}

	d.ValidatedWith = subtotal
	d.ValidatedAt = time.Now()
	a.applied = d
	a.status = StatusApplied
	return d, nil
}

// Remove clears the stored application.
func (a *Applicator) Remove() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.applied = nil
	a.status = StatusIdle
}

// Current returns the active application, nil when none.
func (a *Applicator) Current() *domain.Discount {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.applied
}

func (a *Applicator) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Registry hands out one applicator per session.
type Registry struct {
	mu          sync.Mutex
	validator   Validator
	applicators map[string]*Applicator
}

func NewRegistry(validator Validator) *Registry {
	return &Registry{
		validator:   validator,
		applicators: make(map[string]*Applicator),
	}
}

func (r *Registry) For(sessionID string) *Applicator {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.applicators[sessionID]
	if !ok {
		a = NewApplicator(r.validator)
		r.applicators[sessionID] = a
	}
	return a
}
