package tts

import "regexp"

// emotionSuffix matches a trailing "_token" segment. The token cannot contain
// an underscore, so only the final segment is ever captured.
var emotionSuffix = regexp.MustCompile(`_([^_]+)$`)

// ExtractEmotion splits an optional trailing emotion tag off text.
//
//	ExtractEmotion("Hello there_happy") // "Hello there", "happy", true
//	ExtractEmotion("foo_bar_baz")       // "foo_bar", "baz", true
//	ExtractEmotion("foo")               // "foo", "", false
//
// The tag is not checked against any vocabulary: text that legitimately ends
// in "_word" is always treated as tagged.
func ExtractEmotion(text string) (cleaned, emotion string, ok bool) {
	loc := emotionSuffix.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, "", false
	}
	return text[:loc[0]], text[loc[2]:loc[3]], true
}
