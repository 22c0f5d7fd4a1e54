package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/petrijr/formflow"
	"github.com/petrijr/formflow/pkg/api"
	"github.com/petrijr/formflow/pkg/template"
)

// terminal renders one session as a line-oriented prompt.
type terminal struct {
	sess *formflow.Session
	in   *bufio.Scanner
	out  io.Writer
}

func newTerminal(sess *formflow.Session, in io.Reader, out io.Writer) *terminal {
	return &terminal{sess: sess, in: bufio.NewScanner(in), out: out}
}

// run prompts until the form completes without auto-reload, the input ends
// or the user quits.
func (t *terminal) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		st := t.sess.State()
		if st.Completed {
			fmt.Fprintln(t.out, "Submitted. Thank you!")
			if !t.sess.Schema().AutoReload {
				return nil
			}
			fmt.Fprintf(t.out, "Restarting in %dms...\n", t.sess.Schema().ReloadDelayMillis())
			if !t.awaitReset(ctx) {
				return ctx.Err()
			}
			continue
		}

		q, ok := t.sess.CurrentQuestion()
		if !ok {
			// Empty form: the first Next submits it.
			t.sess.NextStep(ctx)
			continue
		}
		t.prompt(q, st)

		if !t.in.Scan() {
			return t.in.Err()
		}
		line := strings.TrimSpace(t.in.Text())

		if quit := t.command(ctx, line); quit {
			return nil
		}
	}
}

func (t *terminal) awaitReset(ctx context.Context) bool {
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for t.sess.State().Completed {
		select {
		case <-ctx.Done():
			return false
		case <-tick.C:
		}
	}
	return true
}

func (t *terminal) prompt(q *api.Question, st api.FormState) {
	schema := t.sess.Schema()
	idx := schema.IndexOf(q.ID) + 1

	var stepInfo string
	if schema.I18n != nil {
		stepInfo = schema.I18n.StepInfo
	}
	fmt.Fprintf(t.out, "\n[%s] %.0f%%\n", template.StepInfo(stepInfo, idx, len(schema.Questions)), t.sess.Progress())

	view := template.Question(*q, st.Answers)
	title := view.Title
	if q.IsRequired() {
		title += " *"
	}
	fmt.Fprintln(t.out, title)
	if view.Description != "" {
		fmt.Fprintln(t.out, "  "+view.Description)
	}
	for i, opt := range q.Options {
		fmt.Fprintf(t.out, "  %d) %s\n", i+1, opt.Label)
	}
	if msg, ok := st.Errors[q.ID]; ok {
		fmt.Fprintln(t.out, "! "+msg)
	}
	if current, ok := st.Answers[q.ID]; ok {
		fmt.Fprintf(t.out, "  (current: %s)\n", current)
	}
	fmt.Fprint(t.out, "> ")
}

// command applies one input line. It reports true when the user quits.
func (t *terminal) command(ctx context.Context, line string) bool {
	switch {
	case line == ":quit" || line == ":q":
		return true
	case line == ":back":
		t.sess.PrevStep(ctx)
	case line == ":reset":
		t.sess.ResetForm(ctx)
	case line == ":submit":
		t.sess.SubmitForm(ctx)
	case strings.HasPrefix(line, ":jump "):
		t.sess.JumpToStep(ctx, strings.TrimSpace(strings.TrimPrefix(line, ":jump ")))
	default:
		q, ok := t.sess.CurrentQuestion()
		if !ok {
			return false
		}
		if line != "" {
			v, err := parseAnswer(q, line)
			if err != nil {
				msg := err.Error()
				t.sess.RegisterError(ctx, q.ID, &msg)
				return false
			}
			t.sess.SetAnswer(ctx, q.ID, v)
		}
		t.sess.NextStep(ctx)
	}
	return false
}

// parseAnswer converts terminal input into an answer for q. Option numbers
// select the option's value.
func parseAnswer(q *api.Question, text string) (api.AnswerValue, error) {
	switch q.Type {
	case api.QuestionNumber, api.QuestionRating, api.QuestionOpinionScale:
		if len(q.Options) > 0 {
			return pickOption(q, text)
		}
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return api.AnswerValue{}, errors.New("Please enter a number")
		}
		return api.Number(n), nil

	case api.QuestionBoolean:
		switch strings.ToLower(text) {
		case "y", "yes", "true", "1":
			return api.Bool(true), nil
		case "n", "no", "false", "0":
			return api.Bool(false), nil
		}
		return api.AnswerValue{}, errors.New("Please answer yes or no")

	case api.QuestionSelect:
		return pickOption(q, text)

	case api.QuestionMultiSelect:
		var values []string
		for _, part := range strings.Split(text, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			v, err := pickOption(q, part)
			if err != nil {
				return api.AnswerValue{}, err
			}
			values = append(values, v.String())
		}
		return api.Strings(values...), nil
	}
	return api.String(text), nil
}

func pickOption(q *api.Question, text string) (api.AnswerValue, error) {
	if len(q.Options) == 0 {
		return api.String(text), nil
	}
	if i, err := strconv.Atoi(text); err == nil && i >= 1 && i <= len(q.Options) {
		return q.Options[i-1].Value, nil
	}
	for _, opt := range q.Options {
		if strings.EqualFold(opt.Value.String(), text) || strings.EqualFold(opt.Label, text) {
			return opt.Value, nil
		}
	}
	return api.AnswerValue{}, errors.New("Please choose one of the options")
}
