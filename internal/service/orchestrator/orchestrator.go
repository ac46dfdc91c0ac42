// Package orchestrator is the top-level turn loop: safety gate, intent
// classification, handler dispatch, session bookkeeping.
package orchestrator

import (
	"context"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/skinbuddy/concierge/internal/model/profile"
	"github.com/skinbuddy/concierge/internal/service/calendar"
	"github.com/skinbuddy/concierge/internal/service/evidence"
	"github.com/skinbuddy/concierge/internal/service/intake"
	"github.com/skinbuddy/concierge/internal/service/product"
	"github.com/skinbuddy/concierge/internal/service/routine"
	"github.com/skinbuddy/concierge/internal/service/safety"
	"github.com/skinbuddy/concierge/internal/service/session"
)

// Session result-cache keys.
const (
	resultKindProducts = "products"
	resultKindRoutine  = "routine"
	resultKindEvidence = "evidence"
)

// EvidenceAgent resolves ingredient evidence questions.
type EvidenceAgent interface {
	Run(ctx context.Context, question string) evidence.Result
}

// ProductAgent resolves product search questions.
type ProductAgent interface {
	Run(ctx context.Context, question string, prof profile.Profile) product.Result
}

// RoutineAgent builds skincare routines.
type RoutineAgent interface {
	Run(question string, prof profile.Profile) routine.Result
}

// IntakeAgent manages user profiles.
type IntakeAgent interface {
	Run(ctx context.Context, userID, query string) (intake.Result, error)
}

// CalendarAgent plans and executes reminder actions.
type CalendarAgent interface {
	Plan(ctx context.Context, question string, prof profile.Profile) (calendar.Plan, error)
	Execute(ctx context.Context, plan calendar.Plan, confirm bool, selectedTitles []string) calendar.ExecuteResult
}

// Response is the structured reply for one turn.
type Response struct {
	Intent   string           `json:"intent"`
	Message  string           `json:"message,omitempty"`
	Plan     *calendar.Plan   `json:"plan,omitempty"`
	Result   any              `json:"result,omitempty"`
	Evidence *evidence.Result `json:"evidence,omitempty"`
	Products *product.Result  `json:"products,omitempty"`
	Routine  *routine.Result  `json:"routine,omitempty"`
}

type handlerFunc func(ctx context.Context, sess *session.Session, query string) Response

// Orchestrator binds the gate, the classifier, the handler registry and
// the session store into the per-turn control loop.
type Orchestrator struct {
	sessions *session.Store
	gate     *safety.Gate
	intake   IntakeAgent
	evidence EvidenceAgent
	products ProductAgent
	routines RoutineAgent
	calendar CalendarAgent

	handlers map[Intent]handlerFunc
}

// New wires the orchestrator and registers one handler per intent tag.
func New(
	sessions *session.Store,
	gate *safety.Gate,
	intakeAgent IntakeAgent,
	evidenceAgent EvidenceAgent,
	productAgent ProductAgent,
	routineAgent RoutineAgent,
	calendarAgent CalendarAgent,
) *Orchestrator {
	o := &Orchestrator{
		sessions: sessions,
		gate:     gate,
		intake:   intakeAgent,
		evidence: evidenceAgent,
		products: productAgent,
		routines: routineAgent,
		calendar: calendarAgent,
	}
	o.handlers = map[Intent]handlerFunc{
		IntentCalendar:         o.handleCalendar,
		IntentProfile:          o.handleProfile,
		IntentEvidence:         o.handleEvidence,
		IntentProduct:          o.handleProduct,
		IntentRoutine:          o.handleRoutine,
		IntentMixed:            o.handleMixed,
		IntentFollowupProducts: followupHandler(IntentFollowupProducts, resultKindProducts, "I don't have previous products to reference."),
		IntentFollowupRoutine:  followupHandler(IntentFollowupRoutine, resultKindRoutine, "I don't have a previous routine to reference."),
		IntentFollowupEvidence: followupHandler(IntentFollowupEvidence, resultKindEvidence, "I don't have previous evidence to reference."),
	}
	return o
}

// Run processes one turn for a user. Turns for the same user are
// serialized by the session lock; turns for distinct users run
// concurrently. No error escapes for well-formed text input.
func (o *Orchestrator) Run(ctx context.Context, userID, text string) Response {
	sess, release := o.sessions.Acquire(userID)
	defer release()

	// Blocked turns mutate nothing: no history, no caches, and the
	// pending plan stays pending.
	if verdict := o.gate.Check(text); verdict.Blocked {
		return Response{Intent: "unsafe", Message: verdict.Message}
	}

	intent := Classify(text)

	var resp Response
	switch {
	case intent == IntentConfirmation:
		resp = o.resolveConfirmation(ctx, sess, text)
	default:
		handler, ok := o.handlers[intent]
		if !ok {
			resp = Response{Intent: string(IntentNone), Message: "How can I help with skincare today?"}
			break
		}
		resp = handler(ctx, sess, text)
	}

	sess.Append(session.RoleUser, text)
	sess.Append(session.RoleAssistant, assistantText(resp))
	return resp
}

// resolveConfirmation consumes the pending plan on an exact yes/y/no/n
// turn. Anything else never reaches here; it routes through ordinary
// classification and leaves the plan pending.
func (o *Orchestrator) resolveConfirmation(ctx context.Context, sess *session.Session, text string) Response {
	pending := sess.PendingPlan
	if pending == nil {
		return Response{Intent: string(IntentNone), Message: "There is nothing to confirm."}
	}

	sess.PendingPlan = nil

	if affirmative(text) {
		result := o.calendar.Execute(ctx, *pending, true, nil)
		return Response{
			Intent:  string(IntentCalendar),
			Message: confirmationMessage(result),
			Result:  result,
		}
	}
	return Response{Intent: string(IntentCalendar), Message: "Okay, I cancelled the reminder."}
}

func affirmative(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "y":
		return true
	}
	return false
}

func confirmationMessage(result calendar.ExecuteResult) string {
	switch result.Status {
	case calendar.StatusCreated:
		return "Reminder set!"
	case calendar.StatusDeleted:
		return "Reminder deleted."
	case calendar.StatusNoMatches:
		return "No matching reminders were found."
	case calendar.StatusNotImplemented:
		return "Updating reminders is not supported yet."
	default:
		return "Done."
	}
}

func (o *Orchestrator) handleCalendar(ctx context.Context, sess *session.Session, query string) Response {
	// An unresolved plan is never replaced silently.
	if sess.PendingPlan != nil {
		return Response{
			Intent:  "calendar_plan",
			Message: "You already have a reminder awaiting confirmation. Reply yes or no first.",
			Plan:    sess.PendingPlan,
		}
	}

	plan, err := o.calendar.Plan(ctx, query, sess.Profile)
	if err != nil {
		log.Printf("[orchestrator] calendar planning failed: %v", err)
		return Response{Intent: string(IntentCalendar), Message: "I couldn't work out that reminder request. Please try again."}
	}

	if plan.NeedsConfirmation {
		sess.PendingPlan = &plan
		return Response{
			Intent:  "calendar_plan",
			Message: "Do you want me to set this reminder? (yes/no)",
			Plan:    &plan,
		}
	}

	result := o.calendar.Execute(ctx, plan, true, nil)
	return Response{Intent: string(IntentCalendar), Result: result}
}

func (o *Orchestrator) handleProfile(ctx context.Context, sess *session.Session, query string) Response {
	res, err := o.intake.Run(ctx, sess.UserID, query)
	if err != nil {
		log.Printf("[orchestrator] profile handling failed: %v", err)
		return Response{Intent: string(IntentProfile), Message: "I couldn't access your profile right now. Please try again."}
	}
	if res.Profile != nil {
		sess.Profile = res.Profile
	}
	return Response{Intent: string(IntentProfile), Message: res.Message, Result: res}
}

func (o *Orchestrator) handleEvidence(ctx context.Context, sess *session.Session, query string) Response {
	ev := o.evidence.Run(ctx, query)
	sess.SetResult(resultKindEvidence, ev)
	return Response{Intent: string(IntentEvidence), Evidence: &ev}
}

func (o *Orchestrator) handleProduct(ctx context.Context, sess *session.Session, query string) Response {
	prod := o.products.Run(ctx, query, sess.Profile)
	sess.SetResult(resultKindProducts, prod)
	return Response{Intent: string(IntentProduct), Products: &prod}
}

func (o *Orchestrator) handleRoutine(ctx context.Context, sess *session.Session, query string) Response {
	rt := o.routines.Run(query, sess.Profile)
	sess.SetResult(resultKindRoutine, rt)
	return Response{Intent: string(IntentRoutine), Routine: &rt}
}

// handleMixed fans out the evidence and product lookups concurrently and
// joins both results. The goroutines only read the session; all writes
// happen after the join.
func (o *Orchestrator) handleMixed(ctx context.Context, sess *session.Session, query string) Response {
	prof := sess.Profile

	var (
		ev   evidence.Result
		prod product.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ev = o.evidence.Run(gctx, query)
		return nil
	})
	g.Go(func() error {
		prod = o.products.Run(gctx, query, prof)
		return nil
	})
	_ = g.Wait()

	sess.SetResult(resultKindEvidence, ev)
	sess.SetResult(resultKindProducts, prod)
	return Response{Intent: string(IntentMixed), Evidence: &ev, Products: &prod}
}

func followupHandler(intent Intent, kind, missingMsg string) handlerFunc {
	return func(ctx context.Context, sess *session.Session, query string) Response {
		cached, ok := sess.Result(kind)
		if !ok {
			return Response{Intent: string(intent), Message: missingMsg}
		}
		return Response{Intent: string(intent), Result: cached}
	}
}

func assistantText(resp Response) string {
	if resp.Message != "" {
		return resp.Message
	}
	switch {
	case resp.Evidence != nil && resp.Products != nil:
		return "Here is the research summary along with matching products."
	case resp.Evidence != nil:
		return "Here is what the research says."
	case resp.Products != nil:
		return "Here are some products that match."
	case resp.Routine != nil:
		return resp.Routine.RoutineBrief
	default:
		return "Done."
	}
}
