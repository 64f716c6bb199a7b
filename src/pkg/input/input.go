// Package input collects the caption text and the storage token for a run.
package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/q-controller/catcaption/src/pkg/utils"
)

var (
	ErrValidation = errors.New("invalid input")
	ErrEmptyText  = fmt.Errorf("%w: text must not be empty", ErrValidation)
	ErrEmptyToken = fmt.Errorf("%w: token must not be empty", ErrValidation)
	ErrUnsafeText = fmt.Errorf("%w: text must not contain path separators", ErrValidation)
)

// Input is the validated input of a single run.
type Input struct {
	Text  string
	Token string
}

type Provider interface {
	ReadText(ctx context.Context) (string, error)
	ReadToken(ctx context.Context) (string, error)
}

type Source interface {
	Read(ctx context.Context) (string, error)
}

// Sources combines a text source and a token source into a Provider.
type Sources struct {
	Text  Source
	Token Source
}

func (s Sources) ReadText(ctx context.Context) (string, error) {
	return s.Text.Read(ctx)
}

func (s Sources) ReadToken(ctx context.Context) (string, error) {
	return s.Token.Read(ctx)
}

// Collect reads both values from p and validates them. The text is read and
// checked first so an invalid caption fails before the token is touched. The
// text names local and remote files, so it may not contain path separators.
func Collect(ctx context.Context, p Provider) (Input, error) {
	text, textErr := p.ReadText(ctx)
	if textErr != nil {
		return Input{}, fmt.Errorf("failed to read text: %w", textErr)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Input{}, ErrEmptyText
	}
	if strings.ContainsAny(text, `/\`) {
		return Input{}, ErrUnsafeText
	}

	token, tokenErr := p.ReadToken(ctx)
	if tokenErr != nil {
		return Input{}, fmt.Errorf("failed to read token: %w", tokenErr)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Input{}, ErrEmptyToken
	}

	return Input{Text: text, Token: token}, nil
}

type Static string

func (s Static) Read(context.Context) (string, error) {
	return string(s), nil
}

// Prompt writes Label to Out and reads one line from In.
type Prompt struct {
	In    io.Reader
	Out   io.Writer
	Label string
}

func (p *Prompt) Read(context.Context) (string, error) {
	if p.Out != nil && p.Label != "" {
		if _, err := fmt.Fprint(p.Out, p.Label); err != nil {
			return "", err
		}
	}
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return line, nil
}

// TokenFile reads the token from a file. With a positive Wait it blocks
// until the file appears or Wait elapses.
type TokenFile struct {
	Path string
	Wait time.Duration
}

func (f *TokenFile) Read(ctx context.Context) (string, error) {
	if f.Wait > 0 {
		if waitErr := utils.WaitForFileCreation(ctx, f.Path, f.Wait); waitErr != nil {
			return "", waitErr
		}
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
