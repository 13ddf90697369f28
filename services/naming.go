// ABOUTME: Instance naming for newly created destination bins
// ABOUTME: Explicit name cursor plus base-name/next-number resolution from inventory

package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sqlnova/migration-planner/models"
)

const defaultBaseName = "SQLNOVA"

// NameCursor hands out destination instance names during a single engine run.
// Custom names are used first, then "{base}-{NN}" from the configured next number.
// Names already reserved (existing instances, operator-chosen targets) are skipped.
type NameCursor struct {
	baseName string
	next     int
	custom   []string
	taken    map[string]bool
}

// NewNameCursor creates a cursor from the naming source and the custom name queue
func NewNameCursor(naming models.NamingSource, customNames []string) *NameCursor {
	base := strings.TrimSpace(naming.BaseName)
	if base == "" {
		base = defaultBaseName
	}
	next := naming.NextAvailableNumber
	if next < 1 {
		next = 1
	}

	custom := make([]string, 0, len(customNames))
	for _, name := range customNames {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			custom = append(custom, trimmed)
		}
	}

	return &NameCursor{
		baseName: base,
		next:     next,
		custom:   custom,
		taken:    make(map[string]bool),
	}
}

// Reserve marks a name as in use so Next never returns it
func (c *NameCursor) Reserve(name string) {
	c.taken[strings.ToUpper(name)] = true
}

// Taken reports whether a name has been reserved
func (c *NameCursor) Taken(name string) bool {
	return c.taken[strings.ToUpper(name)]
}

// Next returns the next free instance name and reserves it
func (c *NameCursor) Next() string {
	for len(c.custom) > 0 {
		name := c.custom[0]
		c.custom = c.custom[1:]
		if !c.Taken(name) {
			c.Reserve(name)
			return name
		}
	}

	for {
		name := fmt.Sprintf("%s-%02d", c.baseName, c.next)
		c.next++
		if !c.Taken(name) {
			c.Reserve(name)
			return name
		}
	}
}

// ResolveNaming builds the naming source for an environment.
// The base name is "{PREFIX}-{ENV}" and the next number follows the highest
// numeric suffix already used by an existing instance with that base.
func ResolveNaming(prefix, environment string, existingNames []string) models.NamingSource {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = defaultBaseName
	}
	env := strings.ToUpper(strings.TrimSpace(environment))

	base := prefix
	if env != "" {
		base = prefix + "-" + env
	}

	suffix := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(base) + `-(\d+)$`)
	highest := 0
	for _, name := range existingNames {
		m := suffix.FindStringSubmatch(strings.TrimSpace(name))
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}

	return models.NamingSource{
		BaseName:            base,
		NextAvailableNumber: highest + 1,
		Environment:         env,
	}
}
