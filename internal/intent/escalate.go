package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/grizzdank/vozctl/internal/intent/format"
	"github.com/grizzdank/vozctl/pkg/provider/slm"
)

// remoteItem is one element of the disambiguator's JSON response.
type remoteItem struct {
	Kind string            `json:"kind"`
	Name string            `json:"name"`
	Args map[string]string `json:"args"`
	Text string            `json:"text"`
}

// escalate sends an unresolved utterance to the remote disambiguator. It
// returns false on every failure mode: disabled provider, no command-like
// vocabulary in the utterance, timeout, transport error, malformed
// response, or a response with zero resolvable actions. The caller falls
// through to literal dictation.
func (e *Engine) escalate(ctx context.Context, raw string, app *AppContext) ([]Action, bool) {
	if !e.slm.Available() {
		return nil, false
	}
	norm := Normalize(raw)
	// Ordinary prose shares no words with the command vocabulary; skip the
	// round trip and type it.
	if !e.reg.containsVocabulary(norm) {
		return nil, false
	}

	if e.stats != nil {
		e.stats.IncrEscalations()
	}
	start := time.Now()
	resp, err := e.completeWithTimeout(ctx, slm.CompletionRequest{
		SystemPrompt: e.buildPrompt(app),
		UserText:     strings.TrimSpace(raw),
		MaxTokens:    256,
		Temperature:  0,
	})
	elapsed := time.Since(start)
	if err != nil {
		status := "error"
		if ctx.Err() != nil || strings.Contains(err.Error(), "deadline") {
			status = "timeout"
		}
		e.metrics.RecordEscalation(ctx, status, elapsed.Seconds())
		e.log.Warn("escalation failed", "error", err, "elapsed", elapsed)
		return nil, false
	}
	if resp == nil {
		e.metrics.RecordEscalation(ctx, "miss", elapsed.Seconds())
		return nil, false
	}

	actions := e.resolveRemoteResponse(resp.Content)
	if len(actions) == 0 {
		e.metrics.RecordEscalation(ctx, "miss", elapsed.Seconds())
		return nil, false
	}
	e.metrics.RecordEscalation(ctx, "resolved", elapsed.Seconds())
	return actions, true
}

// completeWithTimeout bounds the remote call independently of the
// transport: the provider runs in its own goroutine and a hung call is
// abandoned when the budget expires, so the processing loop never stalls
// behind a dead socket. An abandoned response is discarded, never applied.
func (e *Engine) completeWithTimeout(ctx context.Context, req slm.CompletionRequest) (*slm.CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, e.slmTimeout)
	defer cancel()

	type outcome struct {
		resp *slm.CompletionResponse
		err  error
	}
	ch := make(chan outcome, 1)
	go func() {
		resp, err := e.slm.Complete(ctx, req)
		ch <- outcome{resp, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("intent: escalation deadline exceeded after %s: %w", e.slmTimeout, ctx.Err())
	case out := <-ch:
		return out.resp, out.err
	}
}

// buildPrompt assembles the instruction prompt: the command catalog, the
// JSON schema, and the frontmost application when known.
func (e *Engine) buildPrompt(app *AppContext) string {
	var b strings.Builder
	b.WriteString("You translate a voice transcript from a software developer into editor actions.\n")
	b.WriteString("Respond with ONLY a JSON array. Each element is one of:\n")
	b.WriteString(`  {"kind":"command","name":"<command>","args":{"<arg>":"<value>"}}` + "\n")
	b.WriteString(`  {"kind":"dictation","text":"<text to type>"}` + "\n")
	b.WriteString("Use commands whenever the transcript plausibly names one; use dictation only for prose.\n\n")

	b.WriteString("Exact commands: ")
	b.WriteString(strings.Join(sortedKeys(e.reg.exact), ", "))
	b.WriteString("\n\nParameterized commands:\n")
	for _, p := range e.reg.patterns {
		fmt.Fprintf(&b, "  %s: %s\n", p.name, p.expr)
	}

	b.WriteString("\nText formatters (args: {\"text\": ...}): ")
	b.WriteString(strings.Join(format.Keys(), ", "))
	b.WriteString("\n")

	if app != nil && app.AppName != "" {
		fmt.Fprintf(&b, "\nThe user is focused on %q (%s); prefer that application's conventions.\n",
			app.AppName, app.AppID)
	}
	return b.String()
}

// resolveRemoteResponse parses the disambiguator's raw reply and re-resolves
// every item against the registry. The model supplies names and arguments
// only; handlers always come from the registry, so a hallucinated command
// is dropped rather than fabricated.
func (e *Engine) resolveRemoteResponse(content string) []Action {
	payload := stripMarkdownFence(content)
	var items []remoteItem
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		e.log.Warn("malformed escalation response", "error", err)
		return nil
	}

	var actions []Action
	for _, item := range items {
		switch item.Kind {
		case "dictation":
			if item.Text == "" {
				continue
			}
			actions = append(actions, e.dictationAction(item.Text))
		case "command":
			a, ok := e.resolveRemoteCommand(item)
			if !ok {
				e.log.Warn("dropping unresolvable remote command",
					"name", item.Name, "args", item.Args)
				continue
			}
			actions = append(actions, a)
		default:
			e.log.Warn("dropping remote item of unknown kind", "kind", item.Kind)
		}
	}
	return actions
}

// resolveRemoteCommand maps a remote command item back onto a registry
// entry, widening from exact name matches to reconstructed candidate
// phrases run through the parameterized matcher.
func (e *Engine) resolveRemoteCommand(item remoteItem) (Action, bool) {
	name := Normalize(strings.ReplaceAll(item.Name, "_", " "))
	if name == "" {
		return Action{}, false
	}
	if entry, ok := e.reg.lookupExact(name); ok {
		return e.commandAction(entry), true
	}

	if text, ok := item.Args["text"]; ok && text != "" {
		// Formatter commands arrive as {"name":"snake","args":{"text":...}}.
		if fn, found := format.Lookup(name); found {
			return e.formatAction("format:"+name, fn(text)), true
		}
	}

	for _, candidate := range candidatePhrases(name, item.Args) {
		norm := Normalize(candidate)
		if norm == "" {
			continue
		}
		if entry, ok := e.reg.lookupExact(norm); ok {
			return e.commandAction(entry), true
		}
		if p, args, ok := e.reg.matchPattern(norm); ok {
			return e.patternAction(p, args), true
		}
	}
	return Action{}, false
}

// candidateArgOrder fixes the argument order for reconstructed phrases;
// JSON objects carry no ordering of their own.
var candidateArgOrder = []string{"count", "direction", "number", "text"}

// candidatePhrases reconstructs spoken-form phrases a remote command item
// could correspond to, from most to least literal.
func candidatePhrases(name string, args map[string]string) []string {
	vals := orderedArgValues(args)
	joined := strings.Join(vals, " ")

	candidates := []string{name}
	if joined != "" {
		candidates = append(candidates, name+" "+joined, joined)
	}
	count := args["count"]
	direction := args["direction"]
	if count != "" && direction != "" {
		candidates = append(candidates,
			fmt.Sprintf("go %s %s", count, direction),
			fmt.Sprintf("%s words %s", count, direction),
			fmt.Sprintf("select %s %s", count, direction),
		)
	}
	if count != "" {
		candidates = append(candidates,
			fmt.Sprintf("delete %s words", count),
			fmt.Sprintf("delete %s", count),
		)
	}
	return candidates
}

// orderedArgValues returns argument values in the canonical candidate
// order, with unknown keys appended alphabetically.
func orderedArgValues(args map[string]string) []string {
	var vals []string
	used := make(map[string]bool)
	for _, k := range candidateArgOrder {
		if v := args[k]; v != "" {
			vals = append(vals, v)
			used[k] = true
		}
	}
	var rest []string
	for k, v := range args {
		if !used[k] && v != "" {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		vals = append(vals, args[k])
	}
	return vals
}

// stripMarkdownFence removes a wrapping ```json fenced code block, which
// models emit even when told not to.
func stripMarkdownFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// Drop the language tag line.
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// sortedKeys returns the map's keys in sorted order.
func sortedKeys(m map[string]exactEntry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
