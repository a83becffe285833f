package facts

// Words that can follow "I'm", "this is", "my name is" in speech but are never
// the caller's name. Lowercase.
var nameStopWords = toSet(
	// greetings and time of day
	"hello", "hi", "hey", "howdy", "morning", "afternoon", "evening",
	// fillers and states
	"good", "fine", "great", "well", "okay", "ok", "alright", "here", "calling",
	"looking", "interested", "wondering", "thinking", "trying", "wanting",
	"needing", "hoping", "just", "actually", "really", "very", "pretty", "sure",
	"ready", "glad", "happy", "pleased", "sorry", "still", "also", "not", "so",
	"um", "uh", "yeah", "yes", "no", "going", "gonna", "having", "getting",
	// question words
	"what", "who", "where", "when", "why", "how",
	// descriptors and roles
	"new", "old", "young", "local", "nearby", "customer", "caller", "rancher",
	"farmer", "producer", "owner", "manager",
	// prepositions, articles, connectors
	"near", "from", "in", "at", "on", "out", "over", "with", "up", "down",
	"around", "about", "to", "for", "of", "the", "a", "an", "and", "or", "but",
	"by", "back",
	// pronouns
	"i", "me", "my", "we", "our", "you", "your", "it", "that", "this", "there",
	// livestock and business nouns
	"cattle", "cow", "cows", "calf", "calves", "heifer", "heifers", "bull",
	"bulls", "steer", "steers", "horse", "horses", "sheep", "goat", "goats",
	"pig", "pigs", "hog", "hogs", "feed", "mineral", "minerals", "hay", "grain",
	"ranch", "farm", "business", "company", "order", "delivery", "price",
	"prices",
)

// Substrings that disqualify a stored or extracted name outright.
var nameForbiddenFragments = []string{"wondering", "looking", "thinking", "calling"}

// Values the system writes when it does not know the caller's name.
var placeholderNames = toSet("", "caller", "unknown", "new caller", "wondering", "customer", "n/a", "none")

// Capitalized words that follow "in"/"from"/"near" without naming a place.
var locationStopWords = toSet(
	"the", "a", "an", "my", "our", "your", "his", "her", "their", "this", "that",
	"here", "there", "town", "today", "tomorrow", "yesterday", "i", "we",
	"january", "february", "march", "april", "may", "june", "july", "august",
	"september", "october", "november", "december",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"spring", "summer", "fall", "winter",
)

// Trailing tokens trimmed from a place ("Darby Montana" -> "Darby").
var locationTrailingWords = toSet("montana", "mt", "wyoming", "wy", "area")

// defaultKnownPlaces are matched anywhere in a caller turn before the
// prepositional patterns run.
var defaultKnownPlaces = []string{
	"polson", "missoula", "billings", "bozeman", "kalispell", "helena",
	"great falls", "butte", "havre", "miles city", "livingston", "whitefish",
	"columbia falls", "bigfork", "ronan", "st ignatius", "charlo",
}

// Place names that are also common given names. They still resolve as places,
// but may lead a caller's name.
var givenNamePlaces = toSet(
	"helena", "jackson", "sheridan", "victor", "clinton", "troy", "lincoln", "chester",
	"roy", "shelby", "conrad", "sidney", "terry", "jordan", "laurel", "dillon",
	"bridger", "augusta", "harlem", "lima", "dell", "savage", "baker", "hamilton",
	"malta", "nye", "shepherd", "hobson", "simms", "stanford", "somers",
	"columbus", "manhattan", "boulder", "cascade", "eureka", "fairfield",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
