package inventory

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// sizeAdjective matches whole size words stripped from labels before
// merge-key matching, so that "Large Sofa" and "sofa" collapse into one
// inventory line. Word-bounded so embedded occurrences ("Bigfoot") survive;
// longer alternatives must stay before their prefixes.
var sizeAdjective = regexp.MustCompile(`\b(extra large|extra-large|oversized|large|big|huge|medium|mid-size|midsize|small|mini|compact|tiny|xxl|xl)\b`)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9 ]+`)
var multiSpace = regexp.MustCompile(`\s+`)

// NormalizeLabel derives the stable matching form of a free-text item
// label. The original label is preserved for display; this form is used
// only for merge keys.
func NormalizeLabel(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = sizeAdjective.ReplaceAllString(s, " ")
	s = nonAlphanumeric.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// roomRule maps a substring of a free-text room string to a canonical room
// key. Rules are checked in order, first match wins. Order matters where
// substrings overlap ("garden" must match before "den").
type roomRule struct {
	substr string
	key    string
}

var roomRules = []roomRule{
	{"living", "living-room"},
	{"family", "living-room"},
	{"lounge", "living-room"},
	{"dining", "dining-room"},
	{"kitchen", "kitchen"},
	{"pantry", "pantry"},
	{"bed", "bedroom"},
	{"bath", "bathroom"},
	{"powder", "bathroom"},
	{"office", "office"},
	{"study", "office"},
	{"garden", "outdoor"},
	{"outdoor", "outdoor"},
	{"patio", "outdoor"},
	{"deck", "outdoor"},
	{"balcony", "outdoor"},
	{"yard", "outdoor"},
	{"den", "office"},
	{"laundry", "laundry"},
	{"utility", "laundry"},
	{"mud", "laundry"},
	{"garage", "garage"},
	{"basement", "garage"},
	{"attic", "garage"},
	{"storage", "garage"},
	{"entry", "entryway"},
	{"foyer", "entryway"},
	{"hall", "hallway"},
	{"closet", "closet"},
}

// CanonicalRoomKey normalizes a free-text room string (as returned by the
// model or typed by a user) into a stable room key used for merging.
func CanonicalRoomKey(room string) string {
	s := strings.ToLower(strings.TrimSpace(room))
	if s == "" {
		return "other"
	}
	for _, r := range roomRules {
		if strings.Contains(s, r.substr) {
			return r.key
		}
	}
	slug := nonAlphanumeric.ReplaceAllString(s, " ")
	slug = multiSpace.ReplaceAllString(strings.TrimSpace(slug), "-")
	if slug == "" {
		return "other"
	}
	return slug
}

// MergeKey is the deduplication key for a detection: canonical room plus
// normalized label.
func MergeKey(room, label string) string {
	return CanonicalRoomKey(room) + ":" + NormalizeLabel(label)
}

// bedroomDescriptor matches bedroom room strings that already distinguish
// themselves (explicit number or a named role) and therefore must not be
// renumbered automatically.
var bedroomDescriptor = regexp.MustCompile(`\d|primary|master|guest|nursery|kids|loft|suite|main`)

var roomNumber = regexp.MustCompile(`\d+`)

// HasBedroomDescriptor reports whether the original room string carries its
// own distinguishing descriptor.
func HasBedroomDescriptor(room string) bool {
	return bedroomDescriptor.MatchString(strings.ToLower(room))
}

// roomPriority orders canonical rooms for presentation: walking order
// through a typical property, unknown rooms last. Numbered bedrooms keep
// their numeric order.
func roomPriority(displayRoom string) (int, int) {
	s := strings.ToLower(displayRoom)
	num := 0
	if m := roomNumber.FindString(s); m != "" {
		num, _ = strconv.Atoi(m)
	}
	switch {
	case strings.Contains(s, "entry"), strings.Contains(s, "foyer"):
		return 0, num
	case strings.Contains(s, "living"), strings.Contains(s, "family"):
		return 1, num
	case strings.Contains(s, "dining"):
		return 2, num
	case strings.Contains(s, "kitchen"):
		return 3, num
	case strings.Contains(s, "pantry"):
		return 4, num
	case strings.Contains(s, "bed"):
		return 5, num
	case strings.Contains(s, "bath"):
		return 6, num
	case strings.Contains(s, "office"), strings.Contains(s, "study"):
		return 7, num
	case strings.Contains(s, "laundry"):
		return 8, num
	case strings.Contains(s, "garage"):
		return 9, num
	case strings.Contains(s, "outdoor"), strings.Contains(s, "patio"), strings.Contains(s, "deck"):
		return 10, num
	default:
		return 99, num
	}
}

// DisplayRoomName converts a room key like "bedroom_2" or a raw model room
// string into a title-cased presentation name.
func DisplayRoomName(room string) string {
	s := strings.TrimSpace(room)
	if s == "" {
		return "Other"
	}
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// RoomKeyOrder returns a deterministic sort value for raw room keys as
// produced by the room classifier (e.g. bedroom_1, kitchen). Used to make
// the per-room detection sweep order stable.
func RoomKeyOrder(key string) string {
	p, n := roomPriority(DisplayRoomName(key))
	return fmt.Sprintf("%02d-%04d-%s", p, n, key)
}
