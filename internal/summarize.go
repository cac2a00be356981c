package internal

import (
	"context"
	"fmt"
	"strings"
)

// SummarizeService digests a topic's insights into a structured summary
// through a language model provider.
type SummarizeService struct {
	store    *FileStore
	provider Provider
}

func NewSummarizeService(store *FileStore, provider Provider) *SummarizeService {
	return &SummarizeService{store: store, provider: provider}
}

func (s *SummarizeService) Summarize(ctx context.Context, topic string) (*Summary, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("provider not available")
	}

	insights, err := s.store.List(topic)
	if err != nil {
		return nil, err
	}
	if len(insights) == 0 {
		return &Summary{Title: "Empty", Overview: "No insights found"}, nil
	}

	var sb strings.Builder
	sb.WriteString("Summarize the following insights:\n\n")
	for _, ins := range insights {
		fmt.Fprintf(&sb, "## %s/%s\n%s\n\n%s\n\n", ins.Topic, ins.Name, ins.Overview, ins.Details)
	}

	summary, err := s.provider.GenerateSummary(ctx, sb.String())
	if err != nil {
		return nil, fmt.Errorf("summarize %q: %w", topic, err)
	}
	return summary, nil
}
