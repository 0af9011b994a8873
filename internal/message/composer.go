// Package message renders candidate-facing proposal text from a ranked
// shortlist. Delivery over a notification channel is someone else's job; a
// failure here never invalidates the already persisted schedule.
package message

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/talent-scheduler/internal/ranking"
)

// ErrNoOptions reports an empty shortlist; there is nothing to propose.
var ErrNoOptions = errors.New("message: no options to propose")

// Composer turns a shortlist into proposal text.
type Composer struct {
	loc *time.Location
}

// NewComposer builds a composer rendering times in loc. A nil location falls
// back to the options' own locations.
func NewComposer(loc *time.Location) *Composer {
	return &Composer{loc: loc}
}

// ComposeProposal formats the shortlist for candidateName as a numbered,
// human-readable message. Options render in the order given.
func (c *Composer) ComposeProposal(candidateName, stageName string, durationMinutes int, options []ranking.RankedSlot) (string, error) {
	if len(options) == 0 {
		return "", ErrNoOptions
	}
	name := strings.TrimSpace(candidateName)
	if name == "" {
		name = "there"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "We'd like to schedule your %s interview (%d minutes). Here are the times we can offer:\n\n",
		strings.TrimSpace(stageName), durationMinutes)

	for i, option := range options {
		start := option.Start
		if c != nil && c.loc != nil {
			start = start.In(c.loc)
		}
		fmt.Fprintf(&b, "  %d. %s", i+1, start.Format("Monday, January 2 at 15:04 MST"))
		if option.Reason != "" {
			fmt.Fprintf(&b, " — %s", option.Reason)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nPlease reply with the number that works best for you, and feel free to mention a beverage preference for when you arrive.\n")
	return b.String(), nil
}
