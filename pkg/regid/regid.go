// Package regid generates human-readable registration identifiers of the
// form PREFIX-<base36 timestamp>-<base36 random>, uppercase. The timestamp
// component keeps identifiers roughly sortable by creation time; the random
// suffix makes collisions within the same millisecond overwhelmingly
// unlikely.
package regid

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const randomLen = 4

// Generator produces registration identifiers with a fixed prefix.
type Generator struct {
	prefix  string
	pattern *regexp.Regexp
}

// New constructs a Generator for the given prefix.
func New(prefix string) Generator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = "MATH"
	}
	pattern := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(prefix) + `-[A-Z0-9]+-[A-Z0-9]+$`)
	return Generator{prefix: prefix, pattern: pattern}
}

// Next returns a fresh registration identifier.
func (g Generator) Next() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	return fmt.Sprintf("%s-%s-%s", g.prefix, ts, randomSuffix())
}

// Matches reports whether id has the shape of an identifier produced by this
// generator. Used as a cheap format check before hitting storage.
func (g Generator) Matches(id string) bool {
	return g.pattern.MatchString(strings.TrimSpace(id))
}

// Prefix returns the configured identifier prefix.
func (g Generator) Prefix() string {
	return g.prefix
}

func randomSuffix() string {
	buf := make([]byte, randomLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure is effectively unheard of; fall back to the
		// clock so registration never blocks on it.
		nano := strconv.FormatInt(time.Now().UnixNano(), 36)
		return strings.ToUpper(nano[len(nano)-randomLen:])
	}
	out := make([]byte, randomLen)
	for i, b := range buf {
		out[i] = base36[int(b)%len(base36)]
	}
	return string(out)
}
