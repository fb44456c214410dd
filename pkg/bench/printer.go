package bench

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/IlikeChooros/go-mcts-arena/pkg/mcts"
	"github.com/muesli/termenv"
)

// Renders self-play progress to a terminal: one status line per worker
// (redrawn in place when the output supports it), then a summary.
type Printer[T mcts.MoveLike] struct {
	mu      sync.Mutex
	output  *termenv.Output
	workers int
	live    bool // redraw worker lines in place
}

// Printer writing to stdout, with the colour profile detected from the terminal
func NewPrinter[T mcts.MoveLike]() *Printer[T] {
	return NewPrinterTo[T](os.Stdout)
}

// Printer writing to 'w', additional options select the colour profile (e.g. termenv.WithProfile(termenv.Ascii))
func NewPrinterTo[T mcts.MoveLike](w io.Writer, opts ...termenv.OutputOption) *Printer[T] {
	output := termenv.NewOutput(w, opts...)
	return &Printer[T]{
		output: output,
		live:   output.Profile != termenv.Ascii,
	}
}

func (p *Printer[T]) OnStart(workers int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.workers = workers
	fmt.Fprintln(p.output, p.output.String("self-play").Bold(), fmt.Sprintf("with %d workers", workers))
	if p.live {
		p.output.HideCursor()
		// reserve a line per worker
		for range workers {
			fmt.Fprintln(p.output)
		}
	}
}

func (p *Printer[T]) workerLine(info WorkerInfo[T]) string {
	usage := p.output.String(fmt.Sprintf("%d/%d", info.Used, info.Capacity))
	if info.Capacity > 0 && int(info.Used)*4 > info.Capacity*3 {
		usage = usage.Foreground(p.output.Color("3"))
	} else {
		usage = usage.Foreground(p.output.Color("2"))
	}

	return fmt.Sprintf("worker %d: game %d/%d move %d nodes %s flips %d",
		info.WorkerID, min(info.FinishedGames+1, info.NGames), info.NGames,
		info.GameMoveNum, usage, info.Flips)
}

// Write 'line' at the worker's row, or append it when not redrawing
func (p *Printer[T]) printWorker(id int, line string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.live {
		fmt.Fprintln(p.output, line)
		return
	}

	up := p.workers - id
	p.output.CursorPrevLine(up)
	p.output.ClearLine()
	fmt.Fprint(p.output, line)
	p.output.CursorNextLine(up)
}

func (p *Printer[T]) OnMoveMade(info WorkerInfo[T]) {
	// only the redrawn view keeps up with every move
	if p.live {
		p.printWorker(info.WorkerID, p.workerLine(info))
	}
}

func (p *Printer[T]) OnFinishedGame(info WorkerInfo[T]) {
	result := p.output.String(info.Result.String())
	switch info.Result {
	case FirstToMoveWin:
		result = result.Foreground(p.output.Color("4"))
	case SecondToMoveWin:
		result = result.Foreground(p.output.Color("5"))
	}
	p.printWorker(info.WorkerID, fmt.Sprintf("%s last %s", p.workerLine(info), result))
}

func (p *Printer[T]) OnFinishedWork(info WorkerInfo[T]) {
	p.printWorker(info.WorkerID, fmt.Sprintf("worker %d: %s after %d games",
		info.WorkerID, p.output.String("done").Foreground(p.output.Color("2")), info.FinishedGames))
}

func (p *Printer[T]) Summary(summary SummaryInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	bound := p.output.String("ok").Foreground(p.output.Color("2"))
	if summary.PeakUsed > summary.Capacity {
		bound = p.output.String("exceeded").Foreground(p.output.Color("1")).Bold()
	}

	fmt.Fprintf(p.output, "games %d: first %d, second %d, draws %d\n",
		summary.TotalGames, summary.FirstToMoveWins, summary.SecondToMoveWins, summary.Draws)
	fmt.Fprintf(p.output, "moves %d, flips %d, peak nodes %d/%d (%s)\n",
		summary.Moves, summary.Flips, summary.PeakUsed, summary.Capacity, bound)
}

func (p *Printer[T]) OnEnd() {
	if p.live {
		p.output.ShowCursor()
	}
}
