package debate

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mxchai/bullbear/internal/dataflows"
	"github.com/mxchai/bullbear/internal/market"
)

// State is the single mutable debate state, owned exclusively by the
// recorder loop. Analysts and the synthesizer only ever read it.
type State struct {
	Transcript     string  `json:"transcript"`
	BullTranscript string  `json:"bull_transcript"`
	BearTranscript string  `json:"bear_transcript"`
	LastUtterance  string  `json:"last_utterance"`
	SpeechCount    int     `json:"speech_count"`
	Round          int     `json:"round"`
	NextSpeaker    Persona `json:"next_speaker"`
}

// Record is one audit-log entry per recorded turn. Entries are append-only
// and never mutated after insertion.
type Record struct {
	Round     int     `json:"round"`
	Turn      int     `json:"turn"`
	Speaker   Persona `json:"speaker"`
	Text      string  `json:"text"`
	Timestamp string  `json:"timestamp"`
}

// Result is the outcome of one debate run.
type Result struct {
	Symbol        string             `json:"symbol"`
	TriggerTime   string             `json:"trigger_time"`
	TradeDate     string             `json:"trade_date"`
	Completed     bool               `json:"completed"`
	TotalSpeeches int                `json:"total_speeches"`
	State         *State             `json:"state"`
	Records       []Record           `json:"records"`
	Bundle        *ContextBundle     `json:"bundle"`
	Initial       map[Persona]string `json:"initial"`
	Error         string             `json:"error,omitempty"`
}

// Two rounds of two turns each, bear speaking first in every round.
var schedule = [4]Persona{Bear, Bull, Bear, Bull}

// Recorder drives the debate: aggregate once, seed both base positions,
// then run the fixed four-turn schedule. The state machine is finite and
// deterministic; the only early exit is the aggregation-level abort.
type Recorder struct {
	bull      *Analyst
	bear      *Analyst
	providers []dataflows.Provider
	now       func() time.Time
}

func NewRecorder(bull, bear *Analyst, providers []dataflows.Provider) *Recorder {
	return &Recorder{bull: bull, bear: bear, providers: providers, now: time.Now}
}

func (r *Recorder) ConductDebate(ctx context.Context, triggerTime, symbol string) *Result {
	log.Printf("[debate] start: %s at %s (Bear -> Bull -> Bear -> Bull)", symbol, triggerTime)

	bundle := Aggregate(ctx, r.providers, triggerTime, symbol)
	result := &Result{
		Symbol:      symbol,
		TriggerTime: triggerTime,
		TradeDate:   bundle.TradeDate,
		State:       &State{NextSpeaker: Bear},
		Bundle:      bundle,
		Initial:     make(map[Persona]string, 2),
	}

	if bundle.Unavailable() {
		log.Printf("[debate] all sources unavailable for %s, aborting", symbol)
		result.Error = "所有数据源均无可用数据"
		return result
	}

	// Base positions are independent of the transcript, computed once and
	// reused by every turn. Each goroutine writes its own variable; the
	// shared map is populated only after the barrier.
	var bullInitial, bearInitial string
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		bullInitial = r.bull.InitialStatement(ctx, bundle)
	}()
	go func() {
		defer wg.Done()
		bearInitial = r.bear.InitialStatement(ctx, bundle)
	}()
	wg.Wait()
	result.Initial[Bull] = bullInitial
	result.Initial[Bear] = bearInitial

	for i, speaker := range schedule {
		round := i/2 + 1
		turn := i%2 + 1
		log.Printf("[debate] round %d turn %d: %s", round, turn, speaker.Chinese())

		analyst := r.bear
		if speaker == Bull {
			analyst = r.bull
		}
		text := analyst.TurnStatement(ctx, result.Initial[speaker], result.State, symbol)

		result.Records = append(result.Records, Record{
			Round:     round,
			Turn:      turn,
			Speaker:   speaker,
			Text:      text,
			Timestamp: r.now().Format(market.TriggerTimeLayout),
		})
		result.State.record(speaker, text)
	}

	result.Completed = true
	result.TotalSpeeches = result.State.SpeechCount
	log.Printf("[debate] complete: %d speeches for %s", result.TotalSpeeches, symbol)
	return result
}

// record applies one utterance to the state: append to the combined and
// speaker transcripts, bump the counters, flip the speaker. A turn is
// always recorded atomically with its real or fallback text.
func (s *State) record(speaker Persona, text string) {
	s.Transcript = appendLine(s.Transcript, text)
	if speaker == Bull {
		s.BullTranscript = appendLine(s.BullTranscript, text)
	} else {
		s.BearTranscript = appendLine(s.BearTranscript, text)
	}
	s.LastUtterance = text
	s.SpeechCount++
	s.Round = s.SpeechCount / 2
	s.NextSpeaker = speaker.Opponent()
}

func appendLine(history, line string) string {
	if history == "" {
		return line
	}
	return history + "\n" + line
}
