package services

import (
	"errors"

	"github.com/FTanBorn/tan-link-sub000/internal/models"

	"gorm.io/gorm"
)

// Setup steps in their fixed sequence. Preview is terminal: reaching it with
// all facts satisfied means the caller should leave the flow for the
// dashboard.
type Step string

const (
	StepRegister Step = "register"
	StepUsername Step = "username"
	StepLinks    Step = "links"
	StepTheme    Step = "theme"
	StepPreview  Step = "preview"
)

var stepOrder = []Step{StepRegister, StepUsername, StepLinks, StepTheme, StepPreview}

func stepIndex(s Step) int {
	for i, step := range stepOrder {
		if step == s {
			return i
		}
	}
	return -1
}

// Facts are the persisted truths the current step derives from. The flow
// never stores its own position; it is recomputed from these on every
// session start so it cannot drift from reality.
type Facts struct {
	Authenticated bool
	HasHandle     bool
	LinkCount     int
	HasTheme      bool
}

// Derive is the pure step function: the first unmet requirement wins.
func Derive(f Facts) Step {
	if !f.Authenticated {
		return StepRegister
	}
	if !f.HasHandle {
		return StepUsername
	}
	if f.LinkCount == 0 {
		return StepLinks
	}
	if !f.HasTheme {
		return StepTheme
	}
	return StepPreview
}

// Flow is the session-local cursor over the setup steps. Completed marks are
// per-session only; the durable source of truth is the facts.
type Flow struct {
	current   Step
	completed map[Step]bool
}

// NewFlow derives the starting step and marks every earlier step completed,
// since derive only moves past a step when its fact is satisfied.
func NewFlow(f Facts) *Flow {
	current := Derive(f)
	completed := make(map[Step]bool)
	for _, s := range stepOrder {
		if s == current {
			break
		}
		completed[s] = true
	}
	return &Flow{current: current, completed: completed}
}

// RestoreFlow rebuilds a flow from session-stored completed steps on top of
// freshly derived facts.
func RestoreFlow(f Facts, completed []Step) *Flow {
	flow := NewFlow(f)
	for _, s := range completed {
		if stepIndex(s) >= 0 {
			flow.completed[s] = true
		}
	}
	return flow
}

func (f *Flow) Current() Step { return f.current }

func (f *Flow) Completed() []Step {
	var out []Step
	for _, s := range stepOrder {
		if f.completed[s] {
			out = append(out, s)
		}
	}
	return out
}

func (f *Flow) IsCompleted(s Step) bool { return f.completed[s] }

// Advance moves to the next step; no-op at the terminal step.
func (f *Flow) Advance() Step {
	i := stepIndex(f.current)
	if i < len(stepOrder)-1 {
		f.current = stepOrder[i+1]
	}
	return f.current
}

// Retreat moves to the previous step; no-op at the first step.
func (f *Flow) Retreat() Step {
	i := stepIndex(f.current)
	if i > 0 {
		f.current = stepOrder[i-1]
	}
	return f.current
}

// JumpTo allows moving backward freely, and forward only when the step just
// before the target is completed. The gate looks at the immediate
// predecessor only; that is the given behavior.
func (f *Flow) JumpTo(target Step) error {
	ti := stepIndex(target)
	if ti < 0 {
		return &ValidationError{Field: "step", Reason: "unknown step " + string(target)}
	}
	if ti <= stepIndex(f.current) {
		f.current = target
		return nil
	}
	if ti > 0 && f.completed[stepOrder[ti-1]] {
		f.current = target
		return nil
	}
	return &ValidationError{Field: "step", Reason: "prerequisite step not completed"}
}

// MarkCompleted records the step for this session only; durable completion
// comes from the side effect tied to the step (claiming the handle, adding a
// link, saving the theme).
func (f *Flow) MarkCompleted(s Step) {
	if stepIndex(s) >= 0 {
		f.completed[s] = true
	}
}

// Done reports whether the flow has reached the terminal step.
func (f *Flow) Done() bool { return f.current == StepPreview }

// OnboardingService loads the facts a flow derives from.
type OnboardingService struct {
	db    *gorm.DB
	links *LinkService
}

func NewOnboardingService(db *gorm.DB, links *LinkService) *OnboardingService {
	return &OnboardingService{db: db, links: links}
}

// Facts reads the persisted truths for identity. An unknown identity yields
// unauthenticated facts rather than an error so derive lands on register.
func (s *OnboardingService) Facts(identity string) (Facts, error) {
	var profile models.Profile
	err := s.db.Where("identity = ?", identity).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Facts{}, nil
	}
	if err != nil {
		return Facts{}, &TransientError{Op: "load profile", Err: err}
	}

	count, err := s.links.Count(identity)
	if err != nil {
		return Facts{}, err
	}

	return Facts{
		Authenticated: true,
		HasHandle:     profile.Handle != nil,
		LinkCount:     count,
		HasTheme:      profile.Theme != nil,
	}, nil
}
