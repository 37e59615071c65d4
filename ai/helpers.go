package ai

import "strings"

// CleanResponse flattens an LLM response into something safe to post in
// chat: one line, no prompt-template markers, no command trigger, and no
// broadcast mentions no matter what the model decided to say.
func CleanResponse(resp string) string {
	resp = strings.ReplaceAll(resp, "\n", " ")
	resp = strings.ReplaceAll(resp, "<|im_start|>", "")
	resp = strings.ReplaceAll(resp, "<|im_end|>", "")
	resp = strings.ReplaceAll(resp, "@everyone", "everyone")
	resp = strings.ReplaceAll(resp, "@here", "here")
	resp = strings.TrimPrefix(resp, "!") // remove any leading ! so that we dont trigger commands
	resp = strings.TrimPrefix(resp, "/") // remove any leading / so that we dont trigger commands
	return strings.TrimSpace(resp)
}
