package promotions

import (
	"context"
	"fmt"
	"log"
	"time"
)

type Store interface {
	DueToStart(ctx context.Context, now time.Time) ([]Promotion, error)
	DueToEnd(ctx context.Context, now time.Time) ([]Promotion, error)
	ClaimStart(ctx context.Context, id string) (bool, error)
	FinishStart(ctx context.Context, id string) error
	ClaimEnd(ctx context.Context, id string) (bool, error)
	CompleteEnd(ctx context.Context, id string) error
}

type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// TemplateRenderer resolves a named template (creating the default record
// when absent) and renders subject + body.
type TemplateRenderer interface {
	Render(ctx context.Context, name string, data map[string]any) (subject, html string, err error)
}

type Notifier interface {
	NotifyAdmins(ctx context.Context, title, body string) error
}

// Locker keeps concurrent sweeper replicas down to one active pass; the
// conditional claim in the store remains the correctness backstop.
type Locker interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string)
}

const (
	TplPromotionStarted = "promotion_started"
	TplPromotionEnded   = "promotion_ended"

	lockStartSweep = "start"
	lockEndSweep   = "end"
)

// Sweeper owns the two recurring promotion passes. All collaborators are
// injected; the mail client in particular is built once at bootstrap and
// shared, never per sweep.
type Sweeper struct {
	Store      Store
	Mailer     Mailer
	Templates  TemplateRenderer
	Notifier   Notifier
	Lock       Locker // optional
	StoreEmail string // the shop's own inbox, activation mail goes here
	Now        func() time.Time
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// RunStartSweep activates every promotion whose start date has arrived.
// One bad promotion (claim lost, email bounced) never stops the others; a
// store read failure ends the pass and leaves the rest for the next tick.
func (s *Sweeper) RunStartSweep(ctx context.Context) error {
	if ok, err := s.acquire(ctx, lockStartSweep); err != nil || !ok {
		return err
	}
	defer s.release(ctx, lockStartSweep)

	due, err := s.Store.DueToStart(ctx, s.now())
	if err != nil {
		log.Printf("promo start sweep: list: %v", err)
		return err
	}

	for _, p := range due {
		claimed, err := s.Store.ClaimStart(ctx, p.ID)
		if err != nil {
			log.Printf("promo start sweep: %v", err)
			continue
		}
		if !claimed {
			continue // another pass owns this row
		}

		s.sendMail(ctx, TplPromotionStarted, p)
		if err := s.Notifier.NotifyAdmins(ctx,
			"Promoção iniciada",
			fmt.Sprintf("A promoção %q está disponível.", p.Name),
		); err != nil {
			log.Printf("promo start sweep: notify admins %s: %v", p.ID, err)
		}

		// email_sent stays false on activation; only the end sweep flips it.
		// The asymmetry is historical and is pinned by tests until the
		// intended semantics are confirmed.
		if err := s.Store.FinishStart(ctx, p.ID); err != nil {
			log.Printf("promo start sweep: finish %s: %v", p.ID, err)
		}
	}
	return nil
}

// RunEndSweep deactivates every promotion whose end date has passed. The
// claim marks email_sent up front, so the notification goes out at most once
// even when a later step fails.
func (s *Sweeper) RunEndSweep(ctx context.Context) error {
	if ok, err := s.acquire(ctx, lockEndSweep); err != nil || !ok {
		return err
	}
	defer s.release(ctx, lockEndSweep)

	due, err := s.Store.DueToEnd(ctx, s.now())
	if err != nil {
		log.Printf("promo end sweep: list: %v", err)
		return err
	}

	for _, p := range due {
		claimed, err := s.Store.ClaimEnd(ctx, p.ID)
		if err != nil {
			log.Printf("promo end sweep: %v", err)
			continue
		}
		if !claimed {
			continue
		}

		if err := s.Store.CompleteEnd(ctx, p.ID); err != nil {
			log.Printf("promo end sweep: complete %s: %v", p.ID, err)
			continue
		}

		// state is committed already; a failed send is logged, not retried
		s.sendMail(ctx, TplPromotionEnded, p)
	}
	return nil
}

func (s *Sweeper) sendMail(ctx context.Context, tpl string, p Promotion) {
	subject, html, err := s.Templates.Render(ctx, tpl, map[string]any{
		"Name":      p.Name,
		"StartDate": p.StartDate.Format("02/01/2006 15:04"),
		"EndDate":   p.EndDate.Format("02/01/2006 15:04"),
	})
	if err != nil {
		log.Printf("promo sweep: render %s for %s: %v", tpl, p.ID, err)
		return
	}
	if err := s.Mailer.Send(ctx, s.StoreEmail, subject, html); err != nil {
		log.Printf("promo sweep: send %s for %s: %v", tpl, p.ID, err)
	}
}

func (s *Sweeper) acquire(ctx context.Context, key string) (bool, error) {
	if s.Lock == nil {
		return true, nil
	}
	ok, err := s.Lock.Acquire(ctx, key)
	if err != nil {
		log.Printf("promo sweep: lock %s: %v", key, err)
		return false, err
	}
	return ok, nil
}

func (s *Sweeper) release(ctx context.Context, key string) {
	if s.Lock != nil {
		s.Lock.Release(ctx, key)
	}
}
