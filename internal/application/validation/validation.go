// Package validation turns loosely-typed remote records into typed
// domain entities. Checks are per-record: a malformed record yields a
// Rejection and never aborts the batch it arrived in. Rejected records
// stay in the remote listing and are retried on the next scheduled run.
package validation

import (
	"fmt"
	"strings"
	"time"

	"meridian-core-woo-layer/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// maxReasonsPerRecord caps how many distinct validation errors are
// surfaced for one record, to keep a badly drifted payload from
// flooding the logs.
const maxReasonsPerRecord = 5

var validate = validator.New()

// Rejection describes why one remote record was skipped. It satisfies
// error so strategies can log it directly.
type Rejection struct {
	Entity   domain.EntityType
	RemoteID int64
	Reasons  []string
	dropped  int
}

// Error returns the capped, joined reason list.
func (r *Rejection) Error() string {
	msg := fmt.Sprintf("%s %d rejected: %s", r.Entity, r.RemoteID, strings.Join(r.Reasons, "; "))
	if r.dropped > 0 {
		msg += fmt.Sprintf(" (+%d more)", r.dropped)
	}
	return msg
}

func (r *Rejection) add(reason string) {
	if len(r.Reasons) >= maxReasonsPerRecord {
		r.dropped++
		return
	}
	r.Reasons = append(r.Reasons, reason)
}

func (r *Rejection) addValidatorErrors(err error) {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		r.add(err.Error())
		return
	}
	for _, fe := range verrs {
		r.add(fmt.Sprintf("field %s failed %q", fe.Field(), fe.Tag()))
	}
}

func (r *Rejection) orNil() error {
	if len(r.Reasons) == 0 {
		return nil
	}
	return r
}

// remote timestamps arrive without a zone suffix; some stores send
// full RFC 3339 instead.
var timeLayouts = []string{"2006-01-02T15:04:05", time.RFC3339}

func parseRemoteTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseOptionalTime(rej *Rejection, field, s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, ok := parseRemoteTime(s)
	if !ok {
		rej.add(fmt.Sprintf("field %s has unparseable timestamp %q", field, s))
	}
	return t
}

func parseRequiredDecimal(rej *Rejection, field, s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		rej.add(fmt.Sprintf("field %s is not a decimal amount: %q", field, s))
		return decimal.Zero
	}
	return d
}

func parseOptionalDecimal(rej *Rejection, field, s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	return parseRequiredDecimal(rej, field, s)
}
