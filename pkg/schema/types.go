// Package schema parses and validates Alertmanager configuration documents.
// Parsing accepts a safe YAML subset (well-known scalar and collection types
// only); validation is strict and rejects unknown fields and dangling
// references rather than silently accepting them.
package schema

// Config models the Alertmanager configuration schema accepted by the editor.
type Config struct {
	Global        *GlobalConfig  `yaml:"global,omitempty"`
	Route         *Route         `yaml:"route"`
	Receivers     []Receiver     `yaml:"receivers"`
	InhibitRules  []InhibitRule  `yaml:"inhibit_rules,omitempty"`
	TimeIntervals []TimeInterval `yaml:"time_intervals,omitempty"`
	Templates     []string       `yaml:"templates,omitempty"`
}

// GlobalConfig carries cluster-wide notification defaults.
type GlobalConfig struct {
	ResolveTimeout   string `yaml:"resolve_timeout,omitempty"`
	SMTPSmarthost    string `yaml:"smtp_smarthost,omitempty"`
	SMTPFrom         string `yaml:"smtp_from,omitempty"`
	SMTPAuthUsername string `yaml:"smtp_auth_username,omitempty"`
	SMTPAuthPassword string `yaml:"smtp_auth_password,omitempty"`
	SMTPRequireTLS   *bool  `yaml:"smtp_require_tls,omitempty"`
	SlackAPIURL      string `yaml:"slack_api_url,omitempty"`
	PagerdutyURL     string `yaml:"pagerduty_url,omitempty"`
	HTTPProxyURL     string `yaml:"http_proxy_url,omitempty"`
}

// Route is a node in the routing tree. The top-level route must name a
// receiver; child routes inherit their parent's receiver when unset.
type Route struct {
	Receiver            string            `yaml:"receiver,omitempty"`
	GroupBy             []string          `yaml:"group_by,omitempty"`
	GroupWait           string            `yaml:"group_wait,omitempty"`
	GroupInterval       string            `yaml:"group_interval,omitempty"`
	RepeatInterval      string            `yaml:"repeat_interval,omitempty"`
	Match               map[string]string `yaml:"match,omitempty"`
	MatchRE             map[string]string `yaml:"match_re,omitempty"`
	Matchers            []string          `yaml:"matchers,omitempty"`
	Continue            bool              `yaml:"continue,omitempty"`
	MuteTimeIntervals   []string          `yaml:"mute_time_intervals,omitempty"`
	ActiveTimeIntervals []string          `yaml:"active_time_intervals,omitempty"`
	Routes              []*Route          `yaml:"routes,omitempty"`
}

// Receiver is a named notification target with one or more integrations.
type Receiver struct {
	Name             string            `yaml:"name"`
	EmailConfigs     []EmailConfig     `yaml:"email_configs,omitempty"`
	SlackConfigs     []SlackConfig     `yaml:"slack_configs,omitempty"`
	WebhookConfigs   []WebhookConfig   `yaml:"webhook_configs,omitempty"`
	PagerdutyConfigs []PagerdutyConfig `yaml:"pagerduty_configs,omitempty"`
}

// EmailConfig configures an email integration.
type EmailConfig struct {
	SendResolved *bool  `yaml:"send_resolved,omitempty"`
	To           string `yaml:"to"`
	From         string `yaml:"from,omitempty"`
	Smarthost    string `yaml:"smarthost,omitempty"`
	AuthUsername string `yaml:"auth_username,omitempty"`
	AuthPassword string `yaml:"auth_password,omitempty"`
	RequireTLS   *bool  `yaml:"require_tls,omitempty"`
}

// SlackConfig configures a Slack integration.
type SlackConfig struct {
	SendResolved *bool  `yaml:"send_resolved,omitempty"`
	APIURL       string `yaml:"api_url,omitempty"`
	Channel      string `yaml:"channel"`
	Title        string `yaml:"title,omitempty"`
	Text         string `yaml:"text,omitempty"`
}

// WebhookConfig configures a generic webhook integration.
type WebhookConfig struct {
	SendResolved *bool  `yaml:"send_resolved,omitempty"`
	URL          string `yaml:"url"`
	MaxAlerts    int    `yaml:"max_alerts,omitempty"`
}

// PagerdutyConfig configures a PagerDuty integration.
type PagerdutyConfig struct {
	SendResolved *bool  `yaml:"send_resolved,omitempty"`
	RoutingKey   string `yaml:"routing_key,omitempty"`
	ServiceKey   string `yaml:"service_key,omitempty"`
	Severity     string `yaml:"severity,omitempty"`
}

// InhibitRule mutes target alerts while a matching source alert fires.
type InhibitRule struct {
	SourceMatch    map[string]string `yaml:"source_match,omitempty"`
	SourceMatchRE  map[string]string `yaml:"source_match_re,omitempty"`
	SourceMatchers []string          `yaml:"source_matchers,omitempty"`
	TargetMatch    map[string]string `yaml:"target_match,omitempty"`
	TargetMatchRE  map[string]string `yaml:"target_match_re,omitempty"`
	TargetMatchers []string          `yaml:"target_matchers,omitempty"`
	Equal          []string          `yaml:"equal,omitempty"`
}

// TimeInterval is a named set of time ranges referenced by routes.
type TimeInterval struct {
	Name          string      `yaml:"name"`
	TimeIntervals []TimeRange `yaml:"time_intervals,omitempty"`
}

// TimeRange restricts an interval to specific times, weekdays, or months.
type TimeRange struct {
	Times       []TimePeriod `yaml:"times,omitempty"`
	Weekdays    []string     `yaml:"weekdays,omitempty"`
	DaysOfMonth []string     `yaml:"days_of_month,omitempty"`
	Months      []string     `yaml:"months,omitempty"`
	Years       []string     `yaml:"years,omitempty"`
	Location    string       `yaml:"location,omitempty"`
}

// TimePeriod is a start/end pair within a day, formatted HH:MM.
type TimePeriod struct {
	StartTime string `yaml:"start_time"`
	EndTime   string `yaml:"end_time"`
}
