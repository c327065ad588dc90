// Package hyphen implements word hyphenation: an exception dictionary
// checked first, then a packed pattern trie walked per spec.md §4.8,
// followed by reconstitution into discretionary nodes spliced into the
// original word's node list.
package hyphen

import (
	"strings"

	"github.com/derekparker/trie"

	"github.com/ha1tch/gotex/mem"
	"github.com/ha1tch/gotex/node"
)

// Dictionary holds one language's hyphenation patterns and exceptions
// (spec.md §4.8).
type Dictionary struct {
	Language   int
	exceptions map[string][]int // lowercased word -> break-after flags, one per letter gap
	patterns   *trie.Trie        // key: letters only; Meta(): []int digit values, one per gap (len+1)

	// exceptionSrc/patternSrc retain the original AddException/AddPattern
	// arguments, in insertion order, purely so format.Dump can serialize
	// a dictionary without reaching into derekparker/trie's internals:
	// undump replays these calls instead of reconstructing the trie by
	// hand (spec.md §4.13's packed-trie/exception-dictionary dump).
	exceptionSrc []string
	patternSrc   []string
}

// NewDictionary builds an empty dictionary for the given language id
// (eqtb's \language value, spec.md §4.8).
func NewDictionary(language int) *Dictionary {
	return &Dictionary{
		Language:   language,
		exceptions: make(map[string][]int),
		patterns:   trie.New(),
	}
}

// ExceptionSources and PatternSources expose the original insertion
// strings, for format dumps.
func (d *Dictionary) ExceptionSources() []string { return d.exceptionSrc }
func (d *Dictionary) PatternSources() []string    { return d.patternSrc }

// AddException registers an exact-match exception such as
// "as-so-ciate", spec.md §4.8's "hash by language+letters" dictionary:
// hyphens in word mark the break-after positions directly.
func (d *Dictionary) AddException(word string) {
	word = strings.ToLower(word)
	var letters []byte
	var flags []int
	for i := 0; i < len(word); i++ {
		if word[i] == '-' {
			if len(flags) > 0 {
				flags[len(flags)-1] = 1
			}
			continue
		}
		letters = append(letters, word[i])
		flags = append(flags, 0)
	}
	d.exceptions[string(letters)] = flags
	d.exceptionSrc = append(d.exceptionSrc, word)
}

// AddPattern registers a pattern in Knuth's `.hy3ph3en` notation: digits
// interleave with letters, recording the hyphenation value at each
// letter gap (0 when omitted). A leading/trailing '.' anchors the
// pattern to a word boundary (spec.md §4.8).
func (d *Dictionary) AddPattern(pattern string) {
	var letters []byte
	var digits []int
	digits = append(digits, 0)
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c >= '0' && c <= '9' {
			digits[len(digits)-1] = int(c - '0')
			continue
		}
		letters = append(letters, c)
		digits = append(digits, 0)
	}
	d.patterns.Add(string(letters), digits)
	d.patternSrc = append(d.patternSrc, pattern)
}

// Hyphenate returns, for a lowercase word of len(word) letters, one
// value per letter gap (len(word)-1 entries): odd values mark a legal
// break point, per spec.md §4.8's "combine by max" rule.
func (d *Dictionary) Hyphenate(word string) []int {
	lower := strings.ToLower(word)
	if flags, ok := d.exceptions[lower]; ok {
		return flags[:len(flags)-1]
	}

	padded := "." + lower + "."
	values := make([]int, len(padded)+1)

	for start := 0; start < len(padded); start++ {
		for end := start + 1; end <= len(padded); end++ {
			sub := padded[start:end]
			n, ok := d.patterns.Find(sub)
			if !ok {
				continue
			}
			digits, ok := n.Meta().([]int)
			if !ok {
				continue
			}
			for i, v := range digits {
				pos := start + i
				if v > values[pos] {
					values[pos] = v
				}
			}
		}
	}

	// values is indexed over the padded string's gaps; strip the two
	// boundary-dot gaps to get one value per real letter gap.
	gaps := values[2 : len(values)-2]
	out := make([]int, len(lower)-1)
	copy(out, gaps)
	return out
}

// MinLeft/MinRight are plain TeX's default \lefthyphenmin/
// \righthyphenmin (original_source/src/constants.rs).
const (
	MinLeft  = 2
	MinRight = 3
)

// BreakPositions reduces the raw odd/even values from Hyphenate to the
// actual legal break indices (1-based, before letter i+1), honoring
// the left/right hyphen-margin minimums (spec.md §4.8).
func BreakPositions(word string, values []int) []int {
	var out []int
	for i, v := range values {
		pos := i + 1 // break after the pos-th letter
		if v%2 == 0 {
			continue
		}
		if pos < MinLeft || len(word)-pos < MinRight {
			continue
		}
		out = append(out, pos)
	}
	return out
}

// Reconstitute splices a discretionary node into word at each legal
// break position, the way spec.md §4.8 describes: pre-break carries
// the hyphen character, post-break and replace-count are empty (no
// ligature/kerning re-application — gotex's char nodes are not
// ligature-merged the way real TeX's font-driven reconstitution is,
// see DESIGN.md).
func Reconstitute(word *node.Node, hyphenChar byte, breaks []int) *node.Node {
	if len(breaks) == 0 {
		return word
	}
	var chars []*node.Node
	for n := word; n != nil; n = n.Next {
		chars = append(chars, n)
	}

	breakSet := make(map[int]bool, len(breaks))
	for _, b := range breaks {
		breakSet[b] = true
	}

	var head, tail *node.Node
	for i, c := range chars {
		c.Next = nil
		if head == nil {
			head, tail = c, c
		} else {
			tail.Next = c
			tail = c
		}
		if breakSet[i+1] {
			disc := &node.Node{
				Tag:      mem.TagDiscretionary,
				PreBreak: node.NewChar(c.Font, hyphenChar),
			}
			tail.Next = disc
			tail = disc
		}
	}
	return head
}
