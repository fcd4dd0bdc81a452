package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Confirm asks the user for a yes/no confirmation
// Default is no (returns false on empty input)
func Confirm(message string, input io.Reader, output io.Writer) (bool, error) {
	return ConfirmWithDefault(message, false, input, output)
}

// ConfirmWithDefault asks the user for a yes/no confirmation with a specified default.
// Pass a *bufio.Reader to share buffered input across several prompts.
func ConfirmWithDefault(message string, defaultYes bool, input io.Reader, output io.Writer) (bool, error) {
	reader, ok := input.(*bufio.Reader)
	if !ok {
		reader = bufio.NewReader(input)
	}

	var prompt string
	if defaultYes {
		prompt = fmt.Sprintf("%s [Y/n]: ", message)
	} else {
		prompt = fmt.Sprintf("%s [y/N]: ", message)
	}

	for {
		_, err := fmt.Fprint(output, prompt)
		if err != nil {
			return false, err
		}

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return false, err
		}

		response := strings.TrimSpace(strings.ToLower(line))

		switch response {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			if errors.Is(err, io.EOF) {
				return false, io.EOF
			}
			_, err := fmt.Fprintln(output, "Please enter 'y' or 'n'")
			if err != nil {
				return false, err
			}
		}
	}
}

// CommitCard is a proposed commit as shown before confirmation
type CommitCard struct {
	Prefix      string // type(scope)! or "" when the description already carries it
	Description string
	Body        string
	Footers     []string
	Files       []string
}

// RenderCommitCard formats a proposed commit for display
func RenderCommitCard(card CommitCard) string {
	gray := color.New(color.FgHiBlack).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	var b strings.Builder
	b.WriteString(gray("━━━") + "\n")
	if card.Prefix != "" {
		b.WriteString(bold(card.Prefix + ": "))
	}
	b.WriteString(card.Description + "\n")
	if card.Body != "" {
		b.WriteString(dim(WrapText(card.Body, DefaultWrapWidth)) + "\n")
	}
	if len(card.Footers) > 0 {
		wrapped := make([]string, 0, len(card.Footers))
		for _, f := range card.Footers {
			wrapped = append(wrapped, WrapText(f, DefaultWrapWidth))
		}
		b.WriteString(strings.Join(wrapped, "\n") + "\n")
	}
	b.WriteString(gray("━━━") + "\n")

	fmt.Fprintf(&b, "Applies to these %s: %s",
		bold(Plural(len(card.Files), "file")),
		dim(WrapText(strings.Join(card.Files, ", "), DefaultWrapWidth)))
	return b.String()
}

// RenderPR formats a generated pull request for display
func RenderPR(title, body string) string {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	var b strings.Builder
	b.WriteString(cyan(strings.Repeat("═", 60)) + "\n")
	b.WriteString(green("Title: ") + bold(title) + "\n")
	b.WriteString(cyan(strings.Repeat("─", 60)) + "\n")
	b.WriteString(body + "\n")
	b.WriteString(cyan(strings.Repeat("═", 60)))
	return b.String()
}

// Plural formats "1 file" or "3 files"
func Plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
