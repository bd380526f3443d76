package router

import "strings"

const promptLeadIn = "Based ONLY on the document excerpts above, please answer this question:\n"

const promptRules = "\n\nRULES:\n" +
	"1. Use ONLY the information from the excerpts above.\n" +
	"2. If the answer is not in the excerpts, say \"I cannot find this in the uploaded documents.\"\n" +
	"3. Do NOT repeat the excerpts word-for-word.\n" +
	"4. Be concise and direct.\n"

// windowMessages keeps the first system message, if any, plus the last n
// non-system messages, matching spec.md §4.10's windowing rule.
func windowMessages(messages []Message, n int) []Message {
	var system *Message
	nonSystem := make([]Message, 0, len(messages))
	for i, m := range messages {
		if m.Role == RoleSystem && system == nil {
			s := messages[i]
			system = &s
			continue
		}
		nonSystem = append(nonSystem, m)
	}

	if len(nonSystem) > n {
		nonSystem = nonSystem[len(nonSystem)-n:]
	}

	out := make([]Message, 0, len(nonSystem)+1)
	if system != nil {
		out = append(out, *system)
	}
	out = append(out, nonSystem...)
	return out
}

// injectContext appends a new user message built from block + userText +
// the fixed rules footer to the windowed history (spec.md §4.10 "Prompt
// injection").
func injectContext(windowed []Message, userText, block string) []Message {
	var b strings.Builder
	b.WriteString(block)
	b.WriteString("\n\n")
	b.WriteString(promptLeadIn)
	b.WriteString(userText)
	b.WriteString(promptRules)

	out := make([]Message, 0, len(windowed)+1)
	out = append(out, windowed...)
	out = append(out, Message{Role: RoleUser, Content: b.String()})
	return out
}

// promptSize is the total character count of the templated message list,
// used to decide whether windowing must shrink further.
func promptSize(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Content)
	}
	return total
}
