package ai

// Sampling temperatures per stage
const (
	OutlineTemperature   = 0.8
	ExpansionTemperature = 0.9
)

// System personas
const (
	OutlineSystemPrompt   = "You are a helpful LinkedIn post writing assistant."
	ExpansionSystemPrompt = "You are a professional LinkedIn ghostwriter."
)

// Outline generation prompt.
// Args: post count, topic, audience, tone
const OutlineUserPrompt = `You are an AI content strategist.
Generate %d distinct outlines for LinkedIn posts about "%s".

Each outline must include:
- A hook/opening idea
- 2-3 key talking points
- A suggested call-to-action for engagement

Output format:
OUTLINE 1:
...
OUTLINE 2:
...
and so on.

Target audience: %s
Writing style/tone: %s`

// Expansion prompt.
// Args: post count, tone, audience, outlines
const ExpansionUserPrompt = `You are a professional LinkedIn ghostwriter.
Convert the outlines below into exactly %d full LinkedIn posts.

Rules:
- Each post must be complete and self-contained.
- Start each post with "POST {i}:" (e.g., POST 1:, POST 2:).
- Use short paragraphs, emojis where relevant, and end with a call-to-action.
- No splitting of one post into multiple outputs.
- Tone: %s
- Audience: %s

Outlines:
%s`
