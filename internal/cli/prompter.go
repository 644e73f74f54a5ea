package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/procura/smartfill/internal/conversation"
	"github.com/procura/smartfill/internal/model"
)

// SessionStats summarizes one interactive conversation.
type SessionStats struct {
	Duration            time.Duration
	TotalFields         int
	AutoFilled          int
	SuggestionsAccepted int
	UserProvided        int
	Skipped             int
}

// Prompter walks a user through a conversation session on the terminal: it
// shows what was pre-filled, asks the remaining questions one at a time with
// their suggested answers, and reports how much typing the suggestions saved.
type Prompter struct {
	startTime    time.Time
	writer       io.Writer
	reader       *NonBlockingReader
	orchestrator *conversation.Orchestrator
	progressBar  *progressbar.ProgressBar
	stats        SessionStats
	statsMutex   sync.RWMutex
}

// NewPrompter creates a prompter over the given streams. Nil reader/writer
// default to stdin/stdout.
func NewPrompter(orchestrator *conversation.Orchestrator, reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		orchestrator: orchestrator,
		reader:       NewNonBlockingReader(reader),
		writer:       writer,
		startTime:    time.Now(),
	}
}

// RunConversation drives a full conversation: start, question loop,
// suggestion confirmation, summary. It returns the completed (or interrupted)
// session.
func (p *Prompter) RunConversation(ctx context.Context, req conversation.StartRequest) (*model.ConversationSession, error) {
	session, err := p.orchestrator.StartConversation(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to start conversation: %w", err)
	}

	p.statsMutex.Lock()
	p.stats.TotalFields = len(session.CollectedData) + len(session.SuggestedAnswers) + len(session.RemainingQuestions)
	p.stats.AutoFilled = session.AutoFill.Summary.AutoFilledCount
	p.statsMutex.Unlock()

	p.showOpening(session)
	p.initProgressBar(len(session.RemainingQuestions))

	prompt, err := p.orchestrator.CurrentPrompt(ctx, session)
	if err != nil {
		return session, err
	}

	for prompt != nil {
		value, askErr := p.askQuestion(ctx, prompt)
		if askErr != nil {
			return session, askErr
		}

		prompt, err = p.orchestrator.ProcessUserResponse(ctx, model.UserResponse{
			QuestionID: prompt.Question.ID,
			Value:      value,
			Timestamp:  time.Now(),
		}, session)
		if err != nil {
			return session, fmt.Errorf("failed to process response: %w", err)
		}

		p.updateProgress()
	}

	if err := p.confirmSuggestions(ctx, session); err != nil {
		return session, err
	}

	p.ShowCompletion(session)
	return session, nil
}

// confirmSuggestions walks the suggested-bucket fields once the questions are
// done: each proposed value must be explicitly accepted, replaced, or skipped
// before the request is complete.
func (p *Prompter) confirmSuggestions(ctx context.Context, session *model.ConversationSession) error {
	fields := p.orchestrator.PendingSuggestions(session)
	if len(fields) == 0 {
		return nil
	}

	if _, err := fmt.Fprintln(p.writer, FormatInfo("A few pre-filled values need your confirmation.")); err != nil {
		slog.Warn("Failed to write confirmation header", "error", err)
	}

	for _, field := range fields {
		def := session.AutoFill.Suggested[field]

		value, err := p.askConfirmation(ctx, field, def)
		if err != nil {
			return err
		}
		if err := p.orchestrator.ConfirmSuggestion(ctx, session, field, value); err != nil {
			return fmt.Errorf("failed to confirm %s: %w", field, err)
		}

		p.statsMutex.Lock()
		switch {
		case value.IsSkip():
			p.stats.Skipped++
		case def.Value.Equal(value):
			p.stats.SuggestionsAccepted++
		default:
			p.stats.UserProvided++
		}
		p.statsMutex.Unlock()
	}
	return nil
}

// askConfirmation shows one suggested value and collects the user's verdict:
// Enter accepts, "skip" drops the field, anything else replaces the value.
func (p *Prompter) askConfirmation(ctx context.Context, field model.RequirementField, def model.FieldDefault) (model.ResponseValue, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s Suggested: %s", SparkIcon, SuggestionStyle.Render(def.Value.String())))
	b.WriteString(SubtleStyle.Render("  (press Enter to accept)"))
	b.WriteString("\n\n")
	b.WriteString(SubtleStyle.Render(fmt.Sprintf("Based on %s (%.0f%% confidence). Type a new value to replace it, or 'skip' to leave blank.",
		def.Source.Describe(), def.Confidence*100)))

	if _, err := fmt.Fprintln(p.writer, RenderBox(field.DisplayName(), b.String())); err != nil {
		return model.ResponseValue{}, fmt.Errorf("failed to write confirmation box: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return model.ResponseValue{}, ctx.Err()
		default:
		}

		if _, err := fmt.Fprint(p.writer, FormatPrompt("Confirm")); err != nil {
			return model.ResponseValue{}, fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.reader.ReadLine(ctx)
		if err != nil {
			if err == ErrInputCancelled {
				return model.ResponseValue{}, err
			}
			if err == io.EOF {
				return model.ResponseValue{}, fmt.Errorf("input terminated")
			}
			return model.ResponseValue{}, err
		}

		switch strings.ToLower(input) {
		case "":
			return def.Value, nil
		case "skip", "s":
			return model.SkipValue(), nil
		}

		value, parseErr := model.ParseValue(def.Value.Kind, input)
		if parseErr != nil {
			if _, writeErr := fmt.Fprintln(p.writer, FormatError(fmt.Sprintf("Could not read that: %v. Please try again.", parseErr))); writeErr != nil {
				slog.Warn("Failed to write parse error", "error", writeErr)
			}
			continue
		}
		return value, nil
	}
}

// GetSessionStats returns statistics about the conversation so far.
func (p *Prompter) GetSessionStats() SessionStats {
	p.statsMutex.RLock()
	defer p.statsMutex.RUnlock()

	stats := p.stats
	stats.Duration = time.Since(p.startTime)
	return stats
}

// showOpening renders what the engine already filled in before the first
// question.
func (p *Prompter) showOpening(session *model.ConversationSession) {
	summary := session.AutoFill.Summary

	var lines []string
	lines = append(lines, fmt.Sprintf("%s Acquisition type: %s", InfoIcon, session.AcquisitionType))
	if session.HadDocumentContext {
		lines = append(lines, fmt.Sprintf("%s Document context extracted", DocIcon))
	}
	lines = append(lines, fmt.Sprintf("%s Auto-filled %d fields, %d suggestions ready, %d questions to go",
		SparkIcon, summary.AutoFilledCount, summary.SuggestedCount, len(session.RemainingQuestions)))

	if summary.AutoFilledCount > 0 {
		lines = append(lines, "")
		for _, field := range session.AnsweredFields() {
			value := session.CollectedData[field]
			lines = append(lines, fmt.Sprintf("  %s %s: %s",
				SuccessIcon, field.DisplayName(), SuggestionStyle.Render(value.String())))
		}
	}

	if _, err := fmt.Fprintln(p.writer, RenderBox("New Request", strings.Join(lines, "\n"))); err != nil {
		slog.Warn("Failed to write opening box", "error", err)
	}
}

// askQuestion renders one question and collects a response value. Accepting a
// suggestion, typing a value, and skipping are all answered through the same
// returned ResponseValue.
func (p *Prompter) askQuestion(ctx context.Context, prompt *model.NextPrompt) (model.ResponseValue, error) {
	question := prompt.Question

	content := p.formatQuestion(prompt)
	if _, err := fmt.Fprintln(p.writer, RenderBox(question.Field.DisplayName(), content)); err != nil {
		return model.ResponseValue{}, fmt.Errorf("failed to write question box: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return model.ResponseValue{}, ctx.Err()
		default:
		}

		if _, err := fmt.Fprint(p.writer, FormatPrompt("Answer")); err != nil {
			return model.ResponseValue{}, fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.reader.ReadLine(ctx)
		if err != nil {
			if err == ErrInputCancelled {
				return model.ResponseValue{}, err
			}
			if err == io.EOF {
				return model.ResponseValue{}, fmt.Errorf("input terminated")
			}
			return model.ResponseValue{}, err
		}

		value, ok := p.interpretInput(prompt, input)
		if !ok {
			continue
		}

		if !value.IsSkip() {
			if msg := validateAnswer(question, value); msg != "" {
				if _, err := fmt.Fprintln(p.writer, FormatError(msg)); err != nil {
					slog.Warn("Failed to write validation error", "error", err)
				}
				continue
			}
		}
		p.trackAnswer(prompt, value)
		return value, nil
	}
}

// interpretInput turns raw terminal input into a response value. Empty input
// accepts the suggestion when one exists, "skip" skips, anything else is
// parsed by the question's response type. The second return is false when the
// question must be re-asked.
func (p *Prompter) interpretInput(prompt *model.NextPrompt, input string) (model.ResponseValue, bool) {
	switch strings.ToLower(input) {
	case "":
		if prompt.Suggestion != nil {
			return prompt.Suggestion.Value, true
		}
		if _, err := fmt.Fprintln(p.writer, FormatError("An answer is needed here (or type 'skip').")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
		return model.ResponseValue{}, false
	case "skip", "s":
		if prompt.Question.Required {
			if _, err := fmt.Fprintln(p.writer, FormatError("This question cannot be skipped.")); err != nil {
				slog.Warn("Failed to write error message", "error", err)
			}
			return model.ResponseValue{}, false
		}
		return model.SkipValue(), true
	}

	// Selection questions accept a 1-based option index as shorthand.
	if prompt.Question.ResponseType == model.ResponseSelection {
		if option, ok := matchOption(prompt.Question.Options, input); ok {
			return model.SelectionValue(option), true
		}
		if _, err := fmt.Fprintln(p.writer, FormatError("Pick one of the listed options (name or number).")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
		return model.ResponseValue{}, false
	}

	value, err := model.ParseValue(kindFor(prompt.Question.ResponseType), input)
	if err != nil {
		if _, writeErr := fmt.Fprintln(p.writer, FormatError(fmt.Sprintf("Could not read that: %v. Please try again.", err))); writeErr != nil {
			slog.Warn("Failed to write parse error", "error", writeErr)
		}
		return model.ResponseValue{}, false
	}
	return value, true
}

func (p *Prompter) formatQuestion(prompt *model.NextPrompt) string {
	question := prompt.Question

	var b strings.Builder
	b.WriteString(BoldStyle.Render(question.Prompt))
	b.WriteString("\n")

	if len(question.Options) > 0 {
		b.WriteString("\n")
		for i, option := range question.Options {
			b.WriteString(fmt.Sprintf("  [%d] %s\n", i+1, option))
		}
	}

	if prompt.Suggestion != nil {
		b.WriteString(fmt.Sprintf("\n%s Suggested: %s",
			SparkIcon, SuggestionStyle.Render(prompt.Suggestion.Value.String())))
		b.WriteString(SubtleStyle.Render("  (press Enter to accept)"))
		b.WriteString("\n")
	}

	if prompt.HelpText != "" {
		b.WriteString("\n")
		b.WriteString(SubtleStyle.Render(prompt.HelpText))
		b.WriteString("\n")
	}

	if len(question.Examples) > 0 {
		b.WriteString(SubtleStyle.Render("e.g. " + strings.Join(question.Examples, ", ")))
		b.WriteString("\n")
	}

	if !question.Required {
		b.WriteString(SubtleStyle.Render("Type 'skip' to leave blank."))
	}

	return b.String()
}

func (p *Prompter) trackAnswer(prompt *model.NextPrompt, value model.ResponseValue) {
	p.statsMutex.Lock()
	defer p.statsMutex.Unlock()

	switch {
	case value.IsSkip():
		p.stats.Skipped++
	case prompt.Suggestion != nil && prompt.Suggestion.Value.Equal(value):
		p.stats.SuggestionsAccepted++
	default:
		p.stats.UserProvided++
	}
}

// ShowCompletion displays the completion summary to the user.
func (p *Prompter) ShowCompletion(session *model.ConversationSession) {
	if p.progressBar != nil {
		if err := p.progressBar.Finish(); err != nil {
			slog.Warn("Failed to finish progress bar", "error", err)
		}
		if _, err := fmt.Fprintln(p.writer); err != nil {
			slog.Warn("Failed to write newline", "error", err)
		}
	}

	stats := p.GetSessionStats()

	summary := fmt.Sprintf("%s Request Complete!\n\n", CheckIcon) +
		fmt.Sprintf("%s Statistics:\n", ChartIcon) +
		fmt.Sprintf("  • Fields collected: %d\n", len(session.CollectedData)) +
		fmt.Sprintf("  • Auto-filled: %d\n", stats.AutoFilled) +
		fmt.Sprintf("  • Suggestions accepted: %d\n", stats.SuggestionsAccepted) +
		fmt.Sprintf("  • Typed by you: %d\n", stats.UserProvided) +
		fmt.Sprintf("  • Skipped: %d\n", stats.Skipped) +
		fmt.Sprintf("  • Time taken: %s\n", stats.Duration.Round(time.Second)) +
		fmt.Sprintf("  • Questions saved: ~%d %s\n", stats.AutoFilled+stats.SuggestionsAccepted, SparkIcon)

	if _, err := fmt.Fprintln(p.writer, RenderBox("Conversation Complete", summary)); err != nil {
		slog.Warn("Failed to write completion box", "error", err)
	}
}

func (p *Prompter) initProgressBar(total int) {
	if total == 0 {
		return
	}
	p.progressBar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Filling in the request...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(p.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

func (p *Prompter) updateProgress() {
	if p.progressBar != nil {
		if err := p.progressBar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}
}

// matchOption resolves input against a selection question's options, by
// 1-based index or case-insensitive name.
func matchOption(options []string, input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	var index int
	if _, err := fmt.Sscanf(trimmed, "%d", &index); err == nil {
		if index >= 1 && index <= len(options) {
			return options[index-1], true
		}
		return "", false
	}
	for _, option := range options {
		if strings.EqualFold(option, trimmed) {
			return option, true
		}
	}
	return "", false
}

// validateAnswer checks a parsed value against the question's validation
// rule. An empty return means the answer is acceptable.
func validateAnswer(question model.DynamicQuestion, value model.ResponseValue) string {
	rule := question.Validation
	if rule == nil {
		return ""
	}

	text := value.String()
	if rule.MinLength > 0 && len(text) < rule.MinLength {
		return fmt.Sprintf("Answer must be at least %d characters.", rule.MinLength)
	}
	if rule.MaxLength > 0 && len(text) > rule.MaxLength {
		return fmt.Sprintf("Answer must be at most %d characters.", rule.MaxLength)
	}
	if rule.Pattern != "" {
		re, err := regexp.Compile(rule.Pattern)
		if err == nil && !re.MatchString(text) {
			return "Answer does not match the expected format."
		}
	}
	return ""
}

// kindFor maps a question's response type onto the value kind its answer is
// parsed as.
func kindFor(rt model.ResponseType) model.ValueKind {
	switch rt {
	case model.ResponseSelection:
		return model.ValueSelection
	case model.ResponseNumber:
		return model.ValueNumber
	case model.ResponseDate:
		return model.ValueDate
	case model.ResponseBoolean:
		return model.ValueBoolean
	case model.ResponseDocument:
		return model.ValueDocumentRef
	default:
		return model.ValueText
	}
}
