package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// SystemPromptDE/EN instruct the model to stay inside the retrieved
	// context and answer in the user's language. The context block is
	// appended by the chat service.
	SystemPromptDE = `Du bist ein Assistent für die Webseiten des Universitätsrechenzentrums.
Beantworte Fragen ausschließlich anhand der bereitgestellten Auszüge.
Wenn die Auszüge die Antwort nicht enthalten, sage das offen.
Antworte auf Deutsch, kurz und präzise.

=== AUSZÜGE ===
`

	SystemPromptEN = `You are an assistant for the university computing center's web pages.
Answer questions using ONLY the provided excerpts.
If the excerpts do not contain the answer, say so plainly.
Answer in English, short and precise.

=== EXCERPTS ===
`

	// Shown when no documents have been ingested yet.
	EmptyLibraryMessageDE = "Es sind noch keine Dokumente indexiert. Bitte versuchen Sie es später erneut."
	EmptyLibraryMessageEN = "No documents have been indexed yet. Please try again later."

	// Shown when both retrieval backends are unavailable.
	RetrievalUnavailableMessageDE = "Die Suche ist momentan nicht verfügbar. Bitte versuchen Sie es in Kürze erneut."
	RetrievalUnavailableMessageEN = "Search is currently unavailable. Please try again shortly."

	// Footer headers for the citation list appended to answers.
	SourcesHeaderDE = "Quellen:"
	SourcesHeaderEN = "Sources:"
)
