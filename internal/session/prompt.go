package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// StdinPrompter задаёт вопрос в терминале и ждёт ответа
type StdinPrompter struct {
	mu      sync.Mutex
	in      *bufio.Reader
	out     io.Writer
	pending chan answer
}

// NewStdinPrompter создаёт prompter поверх in и out
func NewStdinPrompter(in io.Reader, out io.Writer) *StdinPrompter {
	return &StdinPrompter{in: bufio.NewReader(in), out: out}
}

type answer struct {
	line string
	err  error
}

// Confirm печатает вопрос и читает строку. Согласием считаются y, yes, نعم.
func (p *StdinPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := fmt.Fprintf(p.out, "%s [y/N]: ", question); err != nil {
		return false, err
	}

	// чтение, прерванное отменой ctx, продолжается и отдаёт строку следующему вызову
	if p.pending == nil {
		p.pending = make(chan answer, 1)
		go func(ch chan<- answer) {
			line, err := p.in.ReadString('\n')
			ch <- answer{line: line, err: err}
		}(p.pending)
	}

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a := <-p.pending:
		p.pending = nil
		if a.err != nil && a.line == "" {
			if a.err == io.EOF {
				return false, nil
			}
			return false, a.err
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes", "نعم", "ن":
			return true, nil
		default:
			return false, nil
		}
	}
}
