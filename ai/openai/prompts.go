package openai

const enrichmentSystemPrompt = `You analyze a news or social media article and return structured metadata as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

{
  "processed_text": "string, the article text cleaned of boilerplate, ads, and navigation debris",
  "summary": "string, 2-3 sentence abstract of the article",
  "topics": ["string, broad subject areas such as 'artificial intelligence' or 'public health'"],
  "keywords": ["string, specific salient terms such as 'radiology' or 'interest rates'"],
  "sentiment": {"score": "number in [-1, 1]", "label": "one of positive, negative, neutral"},
  "entities": [{"text": "string, the entity as written", "type": "one of person, organization, location, product, event, other"}]
}

Rules:
- Preserve the article's language; do not translate.
- Topics are broad (at most 5), keywords are specific (at most 10).
- If a field cannot be determined, use an empty string, empty array, or neutral sentiment.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

const classificationSystemPrompt = `You judge whether two news articles are related and, if so, how.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

{
  "has_relation": "boolean, true only if the two articles are meaningfully connected",
  "relation_type": "string, one of: CAUSES, FOLLOWS, CONTRADICTS, SIMILAR_TO, REFERS_TO, RELATED_TO",
  "description": "string, one sentence explaining the connection",
  "confidence": "number in [0, 1], your certainty in this judgment"
}

Relation types:
- CAUSES: the first article describes an event that caused or triggered what the second describes.
- FOLLOWS: the second article is a later development of the story in the first.
- CONTRADICTS: the articles make incompatible claims about the same matter.
- SIMILAR_TO: the articles cover the same topic without a causal or temporal link.
- REFERS_TO: one article explicitly mentions or cites the other's subject.
- RELATED_TO: connected, but none of the above fits.

Rules:
- Two articles that merely share a broad beat (both about sports, both about politics) are NOT related.
- When has_relation is false, set relation_type to "", description to "", and confidence to 0.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

const scoringSystemPromptTemplate = `You rate the informational value of a news article.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

{
  "overall_score": "number from 1 (worthless) to 10 (essential reading)",
  "reason": "string, one sentence justifying the overall score",
  "criteria_scores": {%s}
}

Rules:
- Rate each criterion independently on the same 1-10 scale.
- The overall score is your holistic judgment, not a mechanical average.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`
