package resolver

import "strings"

// Hotel dictionaries store Latin names while users frequently type them
// in Cyrillic ("риксос премиум"). Transliteration runs before matching.
var translitMap = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// Filler words that carry no identity: "отель Rixos" and "Rixos hotel"
// are the same hotel.
var fillerWords = map[string]bool{
	"отель":     true,
	"отеле":     true,
	"гостиница": true,
	"hotel":     true,
	"resort":    true,
	"spa":       true,
	"в":         true,
	"the":       true,
}

// Spelling variants seen in real user input, applied after transliteration.
var aliases = map[string]string{
	"rikos":   "rixos",
	"riksos":  "rixos",
	"sherton": "sheraton",
}

// Normalize lowercases, transliterates Cyrillic, strips filler words and
// punctuation, and collapses whitespace. Deterministic by construction.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'а' && r <= 'я' || r == 'ё':
			b.WriteString(translitMap[r])
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune(' ')
		}
		// Everything else (punctuation, quotes, stars) is dropped
	}

	words := strings.Fields(b.String())
	kept := words[:0]
	for _, w := range words {
		if fillerWords[w] {
			continue
		}
		if alias, ok := aliases[w]; ok {
			w = alias
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}
