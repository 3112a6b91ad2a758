package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/mikey/chat-spam-guard/internal/ports"
	"github.com/mikey/chat-spam-guard/internal/utils"
	"go.uber.org/zap"
)

const maxLineBytes = 1 << 20

// Summary counts the outcome of a replay
type Summary struct {
	Events    int
	Spam      int
	Malformed int
	Elapsed   time.Duration
}

// JSONLSource replays a file of newline-delimited JSON events through the
// engine in order and prints each verdict.
type JSONLSource struct {
	scorer     ports.Scorer
	processor  *utils.TextProcessor
	logger     *zap.Logger
	in         io.Reader
	out        io.Writer
	verbose    bool
	jsonOutput bool

	summary Summary
}

// NewJSONLSource creates a replay source reading from in and writing to out
func NewJSONLSource(
	scorer ports.Scorer,
	processor *utils.TextProcessor,
	logger *zap.Logger,
	in io.Reader,
	out io.Writer,
	verbose bool,
	jsonOutput bool,
) *JSONLSource {
	return &JSONLSource{
		scorer:     scorer,
		processor:  processor,
		logger:     logger,
		in:         in,
		out:        out,
		verbose:    verbose,
		jsonOutput: jsonOutput,
	}
}

// Name implements ports.EventSource
func (s *JSONLSource) Name() string {
	return "jsonl"
}

// Start reads every line and returns once the input is exhausted
func (s *JSONLSource) Start(ctx context.Context) error {
	start := time.Now()
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}

		var event core.Event
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			s.summary.Malformed++
			s.logger.Warn("Skipping undecodable line", zap.Int("line", line), zap.Error(err))
			continue
		}
		s.processor.NormalizeEvent(&event)

		verdict, err := s.scorer.Evaluate(ctx, &event)
		if err != nil {
			if errors.Is(err, core.ErrMalformedEvent) {
				s.summary.Malformed++
				s.logger.Warn("Skipping malformed event", zap.Int("line", line), zap.Error(err))
				continue
			}
			return fmt.Errorf("line %d: %w", line, err)
		}

		s.summary.Events++
		if verdict.IsSpam {
			s.summary.Spam++
		}
		if err := s.print(line, &event, verdict); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}
	s.summary.Elapsed = time.Since(start)
	return nil
}

func (s *JSONLSource) print(line int, event *core.Event, v *core.Verdict) error {
	if s.jsonOutput {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode verdict: %w", err)
		}
		_, err = fmt.Fprintf(s.out, "%s\n", data)
		return err
	}

	label := "ok  "
	if v.IsSpam {
		label = "SPAM"
	}
	fmt.Fprintf(s.out, "%5d %s score=%.2f author=%s", line, label, v.Score, v.AuthorID)
	if len(v.Indicators) > 0 {
		fmt.Fprintf(s.out, " [%s]", strings.Join(v.Indicators, "; "))
	}
	fmt.Fprintln(s.out)

	if s.verbose {
		preview := event.Text
		if len(preview) > 120 {
			preview = preview[:120] + "..."
		}
		fmt.Fprintf(s.out, "      base=%.2f modifier=%.2f text=%q\n", v.BaseScore, v.RiskModifier, preview)
	}
	return nil
}

// Summary returns the counts of the last replay
func (s *JSONLSource) Summary() Summary {
	return s.summary
}

// Stop is a no-op for the replay source
func (s *JSONLSource) Stop() error {
	return nil
}
