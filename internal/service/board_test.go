package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thinkable-app/thinkable-go/internal/llm"
	"github.com/thinkable-app/thinkable-go/internal/models"
)

type failingGenerator struct {
	err error
}

func (g failingGenerator) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "", g.err
}

func TestShouldAutoTitle(t *testing.T) {
	titler := llm.NewTitler(failingGenerator{}, nil)

	tests := []struct {
		name     string
		svc      *BoardService
		conv     *models.Conversation
		expected bool
	}{
		{
			name:     "untitled board with titler",
			svc:      &BoardService{titler: titler},
			conv:     &models.Conversation{Title: ""},
			expected: true,
		},
		{
			name:     "placeholder title",
			svc:      &BoardService{titler: titler},
			conv:     &models.Conversation{Title: DefaultBoardTitle},
			expected: true,
		},
		{
			name:     "already titled",
			svc:      &BoardService{titler: titler},
			conv:     &models.Conversation{Title: "Vacation plans"},
			expected: false,
		},
		{
			name:     "no titler configured",
			svc:      &BoardService{},
			conv:     &models.Conversation{Title: ""},
			expected: false,
		},
		{
			name:     "titling disabled after fatal error",
			svc:      &BoardService{titler: titler, titlingDisabled: true},
			conv:     &models.Conversation{Title: ""},
			expected: false,
		},
		{
			name: "manually renamed back to empty",
			svc:  &BoardService{titler: titler},
			conv: &models.Conversation{
				Title:    "",
				Metadata: models.Meta{models.MetaManuallyRenamed: true},
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.svc.shouldAutoTitle(tt.conv))
		})
	}
}

func TestAutoTitleDisablesOnFatalError(t *testing.T) {
	fatal := llm.NewTitler(failingGenerator{
		err: fmt.Errorf("%w: invalid api key", llm.ErrFatalAPI),
	}, nil)
	svc := &BoardService{titler: fatal, logger: slog.Default()}

	svc.autoTitle(context.Background(), "owner", "board-1", "first message")

	assert.True(t, svc.titlingDisabled, "fatal provider error should disable titling")
	assert.False(t, svc.shouldAutoTitle(&models.Conversation{Title: ""}))
}

func TestAutoTitleKeepsRetryingOnTransientError(t *testing.T) {
	transient := llm.NewTitler(failingGenerator{
		err: errors.New("generate: connection refused"),
	}, nil)
	svc := &BoardService{titler: transient, logger: slog.Default()}

	svc.autoTitle(context.Background(), "owner", "board-1", "first message")

	assert.False(t, svc.titlingDisabled, "transient error must not disable titling")
	assert.True(t, svc.shouldAutoTitle(&models.Conversation{Title: ""}))
}
