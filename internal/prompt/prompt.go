// Package prompt asks questions on a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bobuk/yewcal/internal/calendar"
)

// ErrAborted is returned when the input ends before an answer is given.
var ErrAborted = errors.New("input aborted")

// Terminal reads answers line by line from in and writes questions to out.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

func New(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrAborted
		}
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Prompt asks for a value. An empty answer returns def.
func (t *Terminal) Prompt(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(t.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(t.out, "%s: ", label)
	}
	answer, err := t.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// PromptInt asks for an integer until one is given.
func (t *Terminal) PromptInt(label string, def int) (int, error) {
	for {
		answer, err := t.Prompt(label, strconv.Itoa(def))
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err == nil {
			return n, nil
		}
		fmt.Fprintf(t.out, "  ❗️ %q is not a number\n", answer)
	}
}

// Confirm asks a yes/no question. Anything but y or yes means no.
func (t *Terminal) Confirm(label string) (bool, error) {
	answer, err := t.Prompt(label+" [y/N]", "")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// Choose lists the candidates with their index and asks for one. It
// satisfies calendar.Chooser.
func (t *Terminal) Choose(candidates []*calendar.Entry) (int, error) {
	for i, e := range candidates {
		fmt.Fprintf(t.out, "  %d: %s %s (%s)\n", i, e.ShortID(), e.Summary, e.Dt.Format("2006-01-02 15:04 MST"))
	}
	return t.PromptInt("Which one", 0)
}
