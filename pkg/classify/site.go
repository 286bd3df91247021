package classify

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hydroflow/hydroflow/internal/model"
)

var (
	siteNamePattern = regexp.MustCompile(`^([A-Za-z]+\d+)$`)
	siteIDPattern   = regexp.MustCompile(`^(\d+)$`)
)

// extractSiteIdentity derives the site id and name from the export's file
// name, falling back to the sensor qualifier captured from column headers.
// A name like "FM01.csv" yields both id and name; a bare numeric name
// yields only the id, and the name mirrors the id.
func extractSiteIdentity(path string, groups map[model.ChannelGroup][]model.ChannelDescriptor) (string, string) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	id, name := "Unknown", "Unknown"
	if m := siteNamePattern.FindStringSubmatch(stem); m != nil {
		id, name = m[1], m[1]
	} else if m := siteIDPattern.FindStringSubmatch(stem); m != nil {
		id = m[1]
	}

	if id == "Unknown" {
		// Map iteration order is random; walk groups in a fixed order so the
		// same headers always yield the same qualifier.
		order := []model.ChannelGroup{
			model.GroupDepth, model.GroupVelocity, model.GroupFlow,
			model.GroupRainfall, model.GroupUnclassified,
		}
		for _, g := range order {
			for _, ch := range groups[g] {
				if ch.Qualifier != "" {
					id = ch.Qualifier
					break
				}
			}
			if id != "Unknown" {
				break
			}
		}
	}

	if name == "Unknown" && id != "Unknown" {
		name = id
	}
	return id, name
}
