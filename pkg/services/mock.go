package services

import (
	"context"
	"fmt"
	"strings"

	utils "SupportChat/pkg/utills"
)

// LocalAssistant answers without any network call. It stands in when no
// provider is configured or the assistant is switched off.
type LocalAssistant struct{}

func NewLocalAssistant() *LocalAssistant { return &LocalAssistant{} }

func (LocalAssistant) Name() string  { return "local" }
func (LocalAssistant) Model() string { return "canned" }

func (LocalAssistant) Ask(ctx context.Context, chat []ChatMessage, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var last string
	if len(chat) > 0 {
		last = strings.TrimSpace(chat[len(chat)-1].Text)
	}
	if last == "" {
		last = "your question"
	}
	b := &strings.Builder{}
	fmt.Fprintf(b, "Thanks for reaching out! You asked about: %s\n\n", utils.Truncate(last, 80))
	fmt.Fprintln(b, "Our assistant is not connected right now, so here is what you can do:")
	fmt.Fprintln(b, "1) Add any order number or account detail that helps us find your case.")
	fmt.Fprintln(b, "2) Keep this window open; a team member reads every conversation.")
	fmt.Fprintln(b, "3) We will follow up at the email you entered if we cannot answer here.")
	return b.String(), nil
}
