package service

import (
	"math"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Freeeeeet/mentorship_service/internal/apperr"
	"github.com/Freeeeeet/mentorship_service/internal/metrics"
	"github.com/Freeeeeet/mentorship_service/internal/notify"
)

// Ограничения пользовательского ввода
const (
	minTextLength      = 10
	maxTextLength      = 2000
	maxReasonLength    = 1000
	maxCommentsLength  = 2000
	maxSessionDuration = 8 * time.Hour
	maxExpertiseTags   = 20
	maxTagLength       = 50
	maxYearsExperience = 70

	defaultPageSize = 12
	maxPageSize     = 50
)

type Option func(*options)

type options struct {
	now      func() time.Time
	metrics  *metrics.Metrics
	notifier notify.Notifier
}

// WithClock подменяет источник времени (тесты)
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithNotifier канал уведомлений; по умолчанию уведомления не отправляются
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func newOptions(opts []Option) options {
	o := options{now: time.Now, notifier: notify.Nop{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) clock() time.Time {
	return o.now().UTC()
}

// failed учитывает ошибку операции в метриках и возвращает её без изменений
func (o options) failed(op string, err error) error {
	if err != nil {
		o.metrics.RecordError(op, string(apperr.KindOf(err)))
	}
	return err
}

func textLength(s string) int {
	return utf8.RuneCountInString(s)
}

func validateText(op, field, value string) error {
	n := textLength(value)
	if n < minTextLength {
		return apperr.Validation(op, field+" must be at least 10 characters")
	}
	if n > maxTextLength {
		return apperr.Validation(op, field+" must be at most 2000 characters")
	}
	return nil
}

// optionalReason пустая причина не хранится
func optionalReason(op, reason string) (*string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, nil
	}
	if textLength(reason) > maxReasonLength {
		return nil, apperr.Validation(op, "reason must be at most 1000 characters")
	}
	return &reason, nil
}

// validateInterval проверяет полуинтервал [start,end) новой или переносимой встречи
func validateInterval(op string, start, end, now time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Validation(op, "start and end time are required")
	}
	if !start.Before(end) {
		return apperr.Validation(op, "start time must be before end time")
	}
	if start.Before(now) {
		return apperr.Validation(op, "start time is in the past")
	}
	if end.Sub(start) > maxSessionDuration {
		return apperr.Validation(op, "session cannot be longer than 8 hours")
	}
	return nil
}

func validateMeetingLink(op, link string) error {
	if link == "" {
		return nil
	}
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperr.Validation(op, "meeting link must be an http(s) URL")
	}
	return nil
}

func roundRating(v float64) float64 {
	return math.Round(v*100) / 100
}
