// Package cohort reduces completed assessments into peer views: per-sector
// industry averages and an anonymous leaderboard.
package cohort

import (
	"hash/fnv"
	"strconv"
)

// Word list lengths (17, 19) are coprime with the 90-wide numeric suffix.
var adjectives = []string{
	"Agile", "Bold", "Bright", "Brisk", "Calm", "Clever", "Daring", "Eager",
	"Keen", "Lucid", "Nimble", "Quick", "Rapid", "Savvy", "Steady", "Swift",
	"Vivid",
}

var nouns = []string{
	"Badger", "Condor", "Dolphin", "Eagle", "Falcon", "Fox", "Heron", "Ibex",
	"Lynx", "Marten", "Orca", "Otter", "Panther", "Raven", "Stag", "Tiger",
	"Wolf", "Jaguar", "Beaver",
}

// Alias derives a stable display name from an assessment id. The same id
// always yields the same alias and no mapping is stored.
func Alias(id string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	sum := h.Sum32()

	a := uint32(len(adjectives))
	n := uint32(len(nouns))
	return adjectives[sum%a] + nouns[(sum/a)%n] + strconv.Itoa(int(sum%90+10))
}
