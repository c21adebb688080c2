package engine

import (
	"strings"

	"github.com/lberthe/atelier/internal/session"
)

// similarityWindow is how many prior user messages a reply is compared
// against.
const similarityWindow = 5

// majorChangeMinLength is the reply length below which only keywords can
// flag a major change.
const majorChangeMinLength = 50

// similarityThreshold is the Jaccard word-overlap above which a reply is
// considered a continuation of the prior conversation.
const similarityThreshold = 0.3

// changeKeywords flag reversal or negation language in a user reply.
var changeKeywords = []string{
	"forget that",
	"forget it",
	"scratch that",
	"start over",
	"start again",
	"nevermind",
	"never mind",
	"instead",
	"completely different",
	"change of plans",
	"rather than",
	"no longer",
	"actually,",
	"on second thought",
}

// IsMajorChange judges whether a user reply constitutes a major requirement
// change: reversal/negation keywords, or a long reply with low textual
// similarity to the recent user messages. With no prior messages only the
// keyword check applies — there is nothing to diverge from.
func IsMajorChange(reply string, prior []session.Message) bool {
	lower := strings.ToLower(reply)
	for _, kw := range changeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	if len(reply) <= majorChangeMinLength || len(prior) == 0 {
		return false
	}
	replyWords := wordSet(lower)
	for _, m := range prior {
		if jaccard(replyWords, wordSet(strings.ToLower(m.Content))) >= similarityThreshold {
			return false
		}
	}
	return true
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if len(w) > 2 {
			set[w] = true
		}
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for w := range a {
		if b[w] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
