package matching

import "regexp"

// Small talk that must never consume a corpus answer. Input is normalized.
var casualPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(hi|hello|hey|hiya|hii+|namaste|yo)( there)?( how are you( doing)?( today)?)?$`),
	regexp.MustCompile(`^(hi|hello|hey)( there)? (good )?(morning|afternoon|evening)$`),
	regexp.MustCompile(`^how are you( doing)?( today)?$`),
	regexp.MustCompile(`^(good )?(morning|afternoon|evening)$`),
	regexp.MustCompile(`^(what is up|sup|how is it going)$`),
	regexp.MustCompile(`^(ok|okay|sure|cool|great|fine|alright)( thanks| thank you)?$`),
	regexp.MustCompile(`^(thanks|thank you)( so much| very much)?$`),
	regexp.MustCompile(`^(bye|goodbye|see you|see you later|talk later)$`),
	regexp.MustCompile(`^(aap kaise ho|kaise ho|kya haal hai)$`),
	regexp.MustCompile(`^(can you hear me|are you there)$`),
}

// IsCasual reports whether a normalized utterance is a greeting or small talk
func IsCasual(normalized string) bool {
	for _, re := range casualPatterns {
		if re.MatchString(normalized) {
			return true
		}
	}
	return false
}
