package tasks

import "strings"

var punctuation = strings.NewReplacer(".", "", ",", "", "?", "", "!", "")

// Normalize maps free-text model output onto the vocabulary. Labels are
// tested in declaration order and the first one whose display string occurs
// in the lower-cased, punctuation-stripped text wins. Text matching nothing
// is Other.
func Normalize(raw string) Label {
	text := strings.ToLower(punctuation.Replace(raw))
	for _, l := range all {
		if strings.Contains(text, strings.ToLower(string(l))) {
			return l
		}
	}
	return Other
}
