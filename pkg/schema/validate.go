package schema

import (
	"fmt"
	"strings"
	"time"
)

// Category classifies a semantic validation failure by the config section
// that produced the first error.
type Category string

// Validation error categories.
const (
	CategoryRoute    Category = "route"
	CategoryReceiver Category = "receiver"
	CategoryInterval Category = "time_interval"
	CategoryInhibit  Category = "inhibit_rule"
	CategoryGlobal   Category = "global"
)

// ValidationError reports one or more semantic problems with a well-formed
// configuration. The pipeline collapses it to an invalid verdict; the
// detailed messages are only surfaced through logs and the remote channel.
type ValidationError struct {
	Category Category
	Messages []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s configuration: %s", e.Category, strings.Join(e.Messages, "; "))
}

// Validate checks a parsed configuration against the schema's semantic rules.
// It returns nil for a valid configuration or a *ValidationError describing
// every problem found. Exactly one of the two outcomes occurs per call.
func Validate(cfg *Config) error {
	v := &validator{
		receivers: make(map[string]bool),
		intervals: make(map[string]bool),
	}

	if cfg == nil {
		v.addf(CategoryRoute, "configuration is empty")
		return v.result()
	}

	v.checkGlobal(cfg.Global)
	v.checkReceivers(cfg.Receivers)
	v.checkIntervals(cfg.TimeIntervals)
	v.checkRouteTree(cfg.Route)
	v.checkInhibitRules(cfg.InhibitRules)

	return v.result()
}

type validator struct {
	receivers map[string]bool
	intervals map[string]bool
	category  Category
	messages  []string
}

func (v *validator) addf(c Category, format string, args ...interface{}) {
	if len(v.messages) == 0 {
		v.category = c
	}
	v.messages = append(v.messages, fmt.Sprintf(format, args...))
}

func (v *validator) result() error {
	if len(v.messages) == 0 {
		return nil
	}
	return &ValidationError{Category: v.category, Messages: v.messages}
}

func (v *validator) checkGlobal(g *GlobalConfig) {
	if g == nil {
		return
	}
	if g.ResolveTimeout != "" {
		if _, err := time.ParseDuration(g.ResolveTimeout); err != nil {
			v.addf(CategoryGlobal, "resolve_timeout %q is not a valid duration", g.ResolveTimeout)
		}
	}
}

func (v *validator) checkReceivers(receivers []Receiver) {
	if len(receivers) == 0 {
		v.addf(CategoryReceiver, "at least one receiver must be defined")
		return
	}

	for i := range receivers {
		r := &receivers[i]
		if r.Name == "" {
			v.addf(CategoryReceiver, "receiver %d is missing a name", i)
			continue
		}
		if v.receivers[r.Name] {
			v.addf(CategoryReceiver, "receiver name %q is not unique", r.Name)
		}
		v.receivers[r.Name] = true

		for j := range r.EmailConfigs {
			if r.EmailConfigs[j].To == "" {
				v.addf(CategoryReceiver, "receiver %q: email config %d is missing 'to'", r.Name, j)
			}
		}
		for j := range r.WebhookConfigs {
			if r.WebhookConfigs[j].URL == "" {
				v.addf(CategoryReceiver, "receiver %q: webhook config %d is missing 'url'", r.Name, j)
			}
		}
		for j := range r.PagerdutyConfigs {
			pd := &r.PagerdutyConfigs[j]
			if pd.RoutingKey == "" && pd.ServiceKey == "" {
				v.addf(CategoryReceiver, "receiver %q: pagerduty config %d needs a routing_key or service_key", r.Name, j)
			}
		}
	}
}

func (v *validator) checkIntervals(intervals []TimeInterval) {
	for i := range intervals {
		ti := &intervals[i]
		if ti.Name == "" {
			v.addf(CategoryInterval, "time interval %d is missing a name", i)
			continue
		}
		if v.intervals[ti.Name] {
			v.addf(CategoryInterval, "time interval name %q is not unique", ti.Name)
		}
		v.intervals[ti.Name] = true

		for _, tr := range ti.TimeIntervals {
			for _, p := range tr.Times {
				if p.StartTime == "" || p.EndTime == "" {
					v.addf(CategoryInterval, "time interval %q has a time range without start_time/end_time", ti.Name)
				}
			}
		}
	}
}

func (v *validator) checkRouteTree(root *Route) {
	if root == nil {
		v.addf(CategoryRoute, "route is required")
		return
	}
	if root.Receiver == "" {
		v.addf(CategoryRoute, "top-level route is missing a receiver")
	}
	v.checkRoute(root, "route")
}

func (v *validator) checkRoute(r *Route, path string) {
	if r.Receiver != "" && !v.receivers[r.Receiver] {
		v.addf(CategoryRoute, "%s references undefined receiver %q", path, r.Receiver)
	}
	for _, field := range []struct{ name, value string }{
		{"group_wait", r.GroupWait},
		{"group_interval", r.GroupInterval},
		{"repeat_interval", r.RepeatInterval},
	} {
		if field.value == "" {
			continue
		}
		if _, err := time.ParseDuration(field.value); err != nil {
			v.addf(CategoryRoute, "%s: %s %q is not a valid duration", path, field.name, field.value)
		}
	}
	for _, name := range r.MuteTimeIntervals {
		if !v.intervals[name] {
			v.addf(CategoryRoute, "%s references undefined mute time interval %q", path, name)
		}
	}
	for _, name := range r.ActiveTimeIntervals {
		if !v.intervals[name] {
			v.addf(CategoryRoute, "%s references undefined active time interval %q", path, name)
		}
	}
	for i, child := range r.Routes {
		if child == nil {
			continue
		}
		v.checkRoute(child, fmt.Sprintf("%s.routes[%d]", path, i))
	}
}

func (v *validator) checkInhibitRules(rules []InhibitRule) {
	for i := range rules {
		r := &rules[i]
		hasSource := len(r.SourceMatch) > 0 || len(r.SourceMatchRE) > 0 || len(r.SourceMatchers) > 0
		hasTarget := len(r.TargetMatch) > 0 || len(r.TargetMatchRE) > 0 || len(r.TargetMatchers) > 0
		if !hasSource {
			v.addf(CategoryInhibit, "inhibit rule %d has no source matchers", i)
		}
		if !hasTarget {
			v.addf(CategoryInhibit, "inhibit rule %d has no target matchers", i)
		}
	}
}
