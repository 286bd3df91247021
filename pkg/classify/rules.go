package classify

import (
	"regexp"
	"strings"

	"github.com/hydroflow/hydroflow/internal/model"
)

// Rule assigns a column to a channel group by matching its header text.
// Rules are evaluated in order; the first match wins. Patterns may capture
// a site qualifier (group "site") and a unit (group "unit").
type Rule struct {
	Group   model.ChannelGroup
	Pattern *regexp.Regexp
}

// DefaultRules matches the pipe-delimited headers emitted by the common
// field loggers ("1234_1|Depth|mm") first, then falls back to plain
// keyword headers ("Depth (m)", "rainfall_mm"). Keep the table data-driven:
// tests exercise it without any file IO.
var DefaultRules = []Rule{
	// Pipe-delimited logger headers carry the sensor id and unit.
	{model.GroupDepth, regexp.MustCompile(`(?i)^(?P<site>\d+)_\d+\|.*(?:Depth|Level)\|(?P<unit>mm|m)$`)},
	{model.GroupVelocity, regexp.MustCompile(`(?i)^(?P<site>\d+)_\d+\|.*Velocity\|(?P<unit>m/s)$`)},
	{model.GroupFlow, regexp.MustCompile(`(?i)^(?P<site>\d+)_\d+\|.*Flow\|(?P<unit>l/s|m3/s)$`)},
	{model.GroupRainfall, regexp.MustCompile(`(?i)^(?P<site>\d+)_\d+\|.*Rainfall\|(?P<unit>mm)$`)},

	// Keyword fallbacks with an optional unit suffix in parentheses,
	// brackets, or after an underscore.
	{model.GroupDepth, regexp.MustCompile(`(?i)^.*(?:depth|level).*?(?:[(\[_ ](?P<unit>mm|m)[)\]]?)?$`)},
	{model.GroupVelocity, regexp.MustCompile(`(?i)^.*(?:velocity|\bvel\b).*?(?:[(\[_ ](?P<unit>m/s)[)\]]?)?$`)},
	{model.GroupFlow, regexp.MustCompile(`(?i)^.*flow.*?(?:[(\[_ ](?P<unit>l/s|m3/s)[)\]]?)?$`)},
	{model.GroupRainfall, regexp.MustCompile(`(?i)^.*rain.*?(?:[(\[_ ](?P<unit>mm)[)\]]?)?$`)},
}

// Match runs the rule table over a header and returns the group plus any
// captured qualifier and unit. Unmatched headers land in GroupUnclassified.
func Match(rules []Rule, header string) (model.ChannelGroup, string, string) {
	trimmed := strings.TrimSpace(header)
	for _, r := range rules {
		m := r.Pattern.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		var site, unit string
		for i, name := range r.Pattern.SubexpNames() {
			if i >= len(m) {
				break
			}
			switch name {
			case "site":
				site = m[i]
			case "unit":
				unit = m[i]
			}
		}
		return r.Group, site, unit
	}
	return model.GroupUnclassified, "", ""
}
