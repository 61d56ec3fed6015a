package constant

const (
	SentimentPromptV1 = `Classify the sentiment of the customer's words on a sales or support call.
Output MUST be valid JSON: {"label": "positive|neutral|negative", "score": 0.0}
score is the confidence between 0 and 1.`

	HighlightPromptV1 = `Extract CRM facts from the customer's words on a sales call.
- budget: amounts, price ranges or spending limits mentioned
- timeline: dates, deadlines or urgency
- objections: concerns or reasons not to buy
- importantInfo: any other fact a salesperson must remember
Use "" for anything not mentioned. Do not guess.
Output MUST be valid JSON: {"budget": "", "timeline": "", "objections": "", "importantInfo": ""}`

	// %s = target language code
	TranslatePromptV1 = `Translate the user's text into the language with code %q.
Keep every "Response A:", "Response B:" and "Response C:" label exactly as written, in English.
Output only the translation.`
)
