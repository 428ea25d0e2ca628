// Package planner turns a route form submission into route store updates and notices.
package planner

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/safelanes/internal/metrics"
	"github.com/woozymasta/safelanes/internal/notify"
	"github.com/woozymasta/safelanes/internal/route"
	"github.com/woozymasta/safelanes/internal/routing"
)

// Notice texts shown after a submission.
const (
	SuccessMessage = "Route found successfully!"
	FailureMessage = "Failed to fetch route. Please try again."
)

// Router fetches a walking route between two free-text locations.
type Router interface {
	WalkingPath(ctx context.Context, source, destination string) ([]routing.Coordinate, error)
}

// Form is the route request as entered by the user.
type Form struct {
	Source      string `json:"source" validate:"required"`
	Destination string `json:"destination" validate:"required"`
}

// Result describes what a submission did.
// Notice is a command for the notification component; nil after validation errors
// and when a newer submission superseded this one.
type Result struct {
	Notice  *notify.Notice
	Ticket  route.Ticket
	Route   route.Route
	Applied bool
}

// Planner validates submissions and drives the route store.
type Planner struct {
	router         Router
	store          *route.Store
	validate       *validator.Validate
	noticeDuration time.Duration
}

// New creates a planner. A non-positive noticeDuration falls back to notify.DefaultDuration.
func New(router Router, store *route.Store, noticeDuration time.Duration) *Planner {
	if noticeDuration <= 0 {
		noticeDuration = notify.DefaultDuration
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &Planner{
		router:         router,
		store:          store,
		validate:       v,
		noticeDuration: noticeDuration,
	}
}

// Validate trims the form fields and reports each empty one.
func (p *Planner) Validate(f Form) (Form, error) {
	f.Source = strings.TrimSpace(f.Source)
	f.Destination = strings.TrimSpace(f.Destination)

	err := p.validate.Struct(f)
	if err == nil {
		return f, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return f, eris.Wrap(err, "planner: validate form")
	}

	verr := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Fields[fe.Field()] = fieldMessage(fe.Field())
	}

	return f, verr
}

// Submit validates the input, requests the route and records the outcome in the store.
// Routing failures are handled here (store, notice, log) and returned only so the
// caller can pick a response status.
func (p *Planner) Submit(ctx context.Context, source, destination string) (Result, error) {
	form, err := p.Validate(Form{Source: source, Destination: destination})
	if err != nil {
		metrics.RouteRequests.WithLabelValues("validation").Inc()
		return Result{}, err
	}

	ticket := p.store.BeginRequest()
	logger := log.With().
		Str("ticket", string(ticket)).
		Str("source", form.Source).
		Str("destination", form.Destination).
		Logger()

	start := time.Now()
	coords, err := p.router.WalkingPath(ctx, form.Source, form.Destination)
	metrics.RouteRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		applied := p.store.FailRequest(ticket)
		metrics.RouteRequests.WithLabelValues(failureOutcome(err)).Inc()

		logger.Error().
			Err(err).
			Bool("applied", applied).
			Msg("Failed to fetch route")

		res := Result{Ticket: ticket, Applied: applied}
		if applied {
			notice := notify.Error(FailureMessage, p.noticeDuration)
			res.Notice = &notice
		}
		return res, err
	}

	r := ToRoute(coords)
	applied := p.store.CompleteRequest(ticket, r)
	if applied {
		metrics.RouteRequests.WithLabelValues("success").Inc()
	} else {
		metrics.RouteRequests.WithLabelValues("stale").Inc()
	}

	logger.Info().
		Int("waypoints", len(r)).
		Bool("applied", applied).
		Dur("duration", time.Since(start)).
		Msg("Route received")

	res := Result{Ticket: ticket, Route: r, Applied: applied}
	if applied {
		notice := notify.Success(SuccessMessage, p.noticeDuration)
		res.Notice = &notice
	}
	return res, nil
}

// ToRoute copies service coordinates into waypoints field by field.
// Missing coordinates become NaN so the renderer can skip them.
func ToRoute(coords []routing.Coordinate) route.Route {
	r := make(route.Route, 0, len(coords))
	for _, c := range coords {
		w := route.Waypoint{Lat: math.NaN(), Lng: math.NaN()}
		if c.Lat != nil {
			w.Lat = *c.Lat
		}
		if c.Lng != nil {
			w.Lng = *c.Lng
		}
		if c.Score != nil {
			w.Score = route.Score(*c.Score)
		}
		r = append(r, w)
	}
	return r
}

func failureOutcome(err error) string {
	var malformed *routing.MalformedResponseError
	if errors.As(err, &malformed) {
		return "malformed"
	}
	return "network"
}
