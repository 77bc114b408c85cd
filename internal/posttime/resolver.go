// Package posttime turns the listing site's year-less "MM-DD HH:MM" labels
// into absolute times and classifies them by recency. All calendar math
// happens in Korea Standard Time.
package posttime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// KST is the fixed zone every label is interpreted in. Korea has no DST.
var KST = time.FixedZone("KST", 9*60*60)

// RecentWindow is the trailing window used by IsPostedRecently
const RecentWindow = 3 * 24 * time.Hour

var ErrMalformedTimestamp = errors.New("malformed timestamp")

// Clock returns the current time
type Clock func() time.Time

// Resolver resolves registration labels against a clock
type Resolver struct {
	now    Clock
	logger *zap.Logger
}

// NewResolver creates a resolver. A nil clock uses time.Now.
func NewResolver(now Clock, logger *zap.Logger) *Resolver {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{now: now, logger: logger}
}

// Now returns the current time in KST
func (r *Resolver) Now() time.Time {
	return r.now().In(KST)
}

// Resolve converts "MM-DD HH:MM" into an absolute time. The current KST year
// is assumed unless that lands after now, in which case the previous year is used.
func (r *Resolver) Resolve(label string) (time.Time, error) {
	fields := strings.Fields(label)
	if len(fields) < 2 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, label)
	}

	month, day, err := splitInts(fields[0], "-")
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: %v", ErrMalformedTimestamp, fields[0], err)
	}
	hour, minute, err := splitInts(fields[1], ":")
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time %q: %v", ErrMalformedTimestamp, fields[1], err)
	}

	now := r.Now()
	candidate := time.Date(now.Year(), time.Month(month), day, hour, minute, 0, 0, KST)
	if candidate.After(now) {
		candidate = time.Date(now.Year()-1, time.Month(month), day, hour, minute, 0, 0, KST)
	}
	return candidate, nil
}

// ResolveEpoch is Resolve in epoch seconds. Unparseable labels are logged
// and yield 0.
func (r *Resolver) ResolveEpoch(label string) int64 {
	t, err := r.Resolve(label)
	if err != nil {
		r.logger.Warn("Unparseable registration date", zap.String("label", label), zap.Error(err))
		return 0
	}
	return t.Unix()
}

// IsPostedToday reports whether ts falls on today's KST calendar date
func (r *Resolver) IsPostedToday(ts int64) bool {
	if ts == 0 {
		return false
	}
	now := r.Now()
	posted := time.Unix(ts, 0).In(KST)

	y1, m1, d1 := now.Date()
	y2, m2, d2 := posted.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// IsPostedRecently reports whether ts lies within [now-3d, now]
func (r *Resolver) IsPostedRecently(ts int64) bool {
	if ts == 0 {
		return false
	}
	now := r.Now()
	posted := time.Unix(ts, 0)
	return !posted.Before(now.Add(-RecentWindow)) && !posted.After(now)
}

func splitInts(s, sep string) (int, int, error) {
	parts := strings.SplitN(s, sep, 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("missing %q", sep)
	}
	a, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
